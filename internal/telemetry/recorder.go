// Package telemetry implements the search-count store: fire-and-forget
// recording of search events and the trending top-N read.
package telemetry

import (
	"context"
	"log"
	"strings"

	"github.com/filmscout/filmscout/internal/domain"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/repository"
)

// Searches is the persistence surface the recorder needs.
type Searches interface {
	RecordSearch(ctx context.Context, params repository.RecordSearchParams) (domain.SearchRecord, bool, error)
	Top(ctx context.Context, limit int) ([]domain.SearchRecord, error)
}

// Outcome describes a single Record call. Failures are carried in Err instead
// of being returned as a Go error so callers can ignore them without a
// lint-hostile discard; recording must never disturb the primary search path.
type Outcome struct {
	Recorded bool
	Created  bool
	Count    int64
	Err      error
}

// Recorder wraps the searches repository with term normalization, poster URL
// derivation, and swallowed-failure semantics.
type Recorder struct {
	searches      Searches
	posterBaseURL string
	trendingLimit int
	logger        *log.Logger
}

// NewRecorder constructs a Recorder. trendingLimit caps the Trending result.
func NewRecorder(searches Searches, posterBaseURL string, trendingLimit int, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	if trendingLimit <= 0 {
		trendingLimit = 5
	}
	return &Recorder{
		searches:      searches,
		posterBaseURL: strings.TrimRight(posterBaseURL, "/"),
		trendingLimit: trendingLimit,
		logger:        logger,
	}
}

// Record bumps the counter for term, creating it with the movie's identity on
// first sight. Errors never escape: they are logged, counted, and folded into
// the returned Outcome.
func (r *Recorder) Record(ctx context.Context, term string, movie domain.MovieSummary) Outcome {
	normalized := NormalizeTerm(term)
	if normalized == "" {
		return Outcome{}
	}

	rec, created, err := r.searches.RecordSearch(ctx, repository.RecordSearchParams{
		Term:      normalized,
		MovieID:   movie.ID,
		PosterURL: r.PosterURL(movie.PosterPath),
	})
	if err != nil {
		r.logger.Printf("telemetry: record %q failed: %v", normalized, err)
		metrics.SearchesRecordedTotal.WithLabelValues("error").Inc()
		return Outcome{Err: err}
	}

	result := "incremented"
	if created {
		result = "created"
	}
	metrics.SearchesRecordedTotal.WithLabelValues(result).Inc()
	return Outcome{Recorded: true, Created: created, Count: rec.Count}
}

// Trending returns the top-N most-searched terms by count descending. A store
// failure returns a non-nil error so callers can tell it apart from an empty
// trending list.
func (r *Recorder) Trending(ctx context.Context) ([]domain.SearchRecord, error) {
	records, err := r.searches.Top(ctx, r.trendingLimit)
	if err != nil {
		r.logger.Printf("telemetry: trending read failed: %v", err)
		metrics.TrendingReadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TrendingReadsTotal.WithLabelValues("ok").Inc()
	return records, nil
}

// NormalizeTerm canonicalizes a raw query so "Dune " and "dune" share a
// counter row.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// PosterURL formats a metadata-service poster path onto the image host. An
// empty path yields an empty URL rather than a bare base.
func (r *Recorder) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	return r.posterBaseURL + posterPath
}
