package telemetry

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/filmscout/filmscout/internal/domain"
	"github.com/filmscout/filmscout/internal/repository"
)

type fakeSearches struct {
	records   map[string]*domain.SearchRecord
	failWrite error
	failRead  error
	lastLimit int
}

func newFakeSearches() *fakeSearches {
	return &fakeSearches{records: make(map[string]*domain.SearchRecord)}
}

func (f *fakeSearches) RecordSearch(ctx context.Context, params repository.RecordSearchParams) (domain.SearchRecord, bool, error) {
	if f.failWrite != nil {
		return domain.SearchRecord{}, false, f.failWrite
	}
	if rec, ok := f.records[params.Term]; ok {
		rec.Count++
		rec.UpdatedAt = time.Now()
		return *rec, false, nil
	}
	rec := &domain.SearchRecord{
		ID:         params.Term + "-id",
		SearchTerm: params.Term,
		Count:      1,
		MovieID:    params.MovieID,
		PosterURL:  params.PosterURL,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.records[params.Term] = rec
	return *rec, true, nil
}

func (f *fakeSearches) Top(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	f.lastLimit = limit
	if f.failRead != nil {
		return nil, f.failRead
	}
	out := make([]domain.SearchRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

func newTestRecorder(searches Searches) *Recorder {
	return NewRecorder(searches, "https://image.tmdb.org/t/p/w500", 5, log.New(io.Discard, "", 0))
}

func TestRecordNormalizesAndCreates(t *testing.T) {
	fake := newFakeSearches()
	rec := newTestRecorder(fake)

	outcome := rec.Record(context.Background(), "  Dune  ", domain.MovieSummary{
		ID:         693134,
		Title:      "Dune: Part Two",
		PosterPath: "/dune.jpg",
	})
	if !outcome.Recorded || !outcome.Created {
		t.Fatalf("outcome = %+v, want recorded+created", outcome)
	}
	if outcome.Count != 1 {
		t.Fatalf("count = %d, want 1", outcome.Count)
	}

	stored, ok := fake.records["dune"]
	if !ok {
		t.Fatalf("term not normalized to %q; stored keys: %v", "dune", fake.records)
	}
	if stored.PosterURL != "https://image.tmdb.org/t/p/w500/dune.jpg" {
		t.Fatalf("poster url = %q", stored.PosterURL)
	}
}

func TestRecordEmptyTermIsNoop(t *testing.T) {
	fake := newFakeSearches()
	rec := newTestRecorder(fake)

	outcome := rec.Record(context.Background(), "   ", domain.MovieSummary{ID: 1})
	if outcome.Recorded || outcome.Err != nil {
		t.Fatalf("outcome = %+v, want zero value", outcome)
	}
	if len(fake.records) != 0 {
		t.Fatalf("expected no writes, got %v", fake.records)
	}
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	fake := newFakeSearches()
	fake.failWrite = errors.New("connection refused")
	rec := newTestRecorder(fake)

	outcome := rec.Record(context.Background(), "dune", domain.MovieSummary{ID: 1})
	if outcome.Recorded {
		t.Fatalf("outcome.Recorded = true on failing store")
	}
	if outcome.Err == nil {
		t.Fatalf("outcome.Err = nil, failure should be visible in the result")
	}
}

func TestTrendingPassesConfiguredLimit(t *testing.T) {
	fake := newFakeSearches()
	rec := NewRecorder(fake, "https://img", 3, log.New(io.Discard, "", 0))

	if _, err := rec.Trending(context.Background()); err != nil {
		t.Fatalf("trending: %v", err)
	}
	if fake.lastLimit != 3 {
		t.Fatalf("limit = %d, want 3", fake.lastLimit)
	}
}

func TestTrendingFailureDistinguishableFromEmpty(t *testing.T) {
	fake := newFakeSearches()
	rec := newTestRecorder(fake)

	records, err := rec.Trending(context.Background())
	if err != nil {
		t.Fatalf("trending on empty store: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v, want empty", records)
	}

	fake.failRead = errors.New("store unreachable")
	records, err = rec.Trending(context.Background())
	if err == nil {
		t.Fatalf("expected error on store failure, got records=%v", records)
	}
}

func TestPosterURL(t *testing.T) {
	rec := newTestRecorder(newFakeSearches())

	tests := []struct {
		path string
		want string
	}{
		{"/dune.jpg", "https://image.tmdb.org/t/p/w500/dune.jpg"},
		{"dune.jpg", "https://image.tmdb.org/t/p/w500/dune.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := rec.PosterURL(tt.path); got != tt.want {
			t.Fatalf("PosterURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func FuzzNormalizeTerm(f *testing.F) {
	f.Add("Dune")
	f.Add("  The MATRIX  ")
	f.Add("\t\n")

	f.Fuzz(func(t *testing.T, term string) {
		normalized := NormalizeTerm(term)
		if normalized != NormalizeTerm(normalized) {
			t.Fatalf("normalization not idempotent for %q", term)
		}
		if normalized != "" && (normalized[0] == ' ' || normalized[len(normalized)-1] == ' ') {
			t.Fatalf("normalized term %q retains edge whitespace", normalized)
		}
	})
}
