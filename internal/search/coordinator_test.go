package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/filmscout/filmscout/internal/domain"
	"github.com/filmscout/filmscout/internal/telemetry"
)

// blockingClient lets each fetch be held open until released by query name.
type blockingClient struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	fetched []string
}

func newBlockingClient() *blockingClient {
	return &blockingClient{gates: make(map[string]chan struct{})}
}

func (c *blockingClient) gate(query string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gates[query]; ok {
		return g
	}
	g := make(chan struct{})
	c.gates[query] = g
	return g
}

func (c *blockingClient) release(query string) {
	close(c.gate(query))
}

func (c *blockingClient) FetchMovies(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	c.mu.Lock()
	c.fetched = append(c.fetched, query)
	c.mu.Unlock()

	select {
	case <-c.gate(query):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []domain.MovieSummary{{ID: int64(len(query)), Title: query}}, nil
}

func (c *blockingClient) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fetched)
}

type captureRecorder struct {
	mu    sync.Mutex
	terms []string
}

func (r *captureRecorder) Record(ctx context.Context, term string, movie domain.MovieSummary) telemetry.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms = append(r.terms, term)
	return telemetry.Outcome{Recorded: true, Count: 1}
}

func collectResults() (func(Result), func() []Result) {
	var mu sync.Mutex
	var results []Result
	apply := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	}
	snapshot := func() []Result {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Result, len(results))
		copy(out, results)
		return out
	}
	return apply, snapshot
}

func TestDebounceOnlySettledValueQueried(t *testing.T) {
	client := newBlockingClient()
	apply, snapshot := collectResults()
	coord := New(client, nil, 30*time.Millisecond, apply)
	defer coord.Close()

	coord.Input("d")
	coord.Input("du")
	coord.Input("dun")
	coord.Input("dune")
	client.release("dune")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(snapshot()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := client.fetchCount(); got != 1 {
		t.Fatalf("fetch count = %d, want 1 (only the settled value)", got)
	}
	results := snapshot()
	if len(results) != 1 || results[0].Query != "dune" {
		t.Fatalf("results = %+v, want single result for %q", results, "dune")
	}
}

func TestStaleResponseNeverApplied(t *testing.T) {
	client := newBlockingClient()
	apply, snapshot := collectResults()
	coord := New(client, nil, 0, apply)
	defer coord.Close()

	coord.Input("slow")
	coord.Input("fast")

	// Let the newer fetch resolve first, then the superseded one.
	client.release("fast")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(snapshot()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	client.release("slow")
	coord.Flush()

	results := snapshot()
	if len(results) != 1 {
		t.Fatalf("results = %+v, want exactly one applied result", results)
	}
	if results[0].Query != "fast" {
		t.Fatalf("applied query = %q, want %q", results[0].Query, "fast")
	}
}

func TestRecordsTopResultForNonEmptyQuery(t *testing.T) {
	client := newBlockingClient()
	recorder := &captureRecorder{}
	apply, _ := collectResults()
	coord := New(client, recorder, 0, apply)

	coord.Input("dune")
	client.release("dune")
	coord.Flush()

	coord.Input("")
	client.release("")
	coord.Flush()
	coord.Close()

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.terms) != 1 || recorder.terms[0] != "dune" {
		t.Fatalf("recorded terms = %v, want [dune] (empty query never recorded)", recorder.terms)
	}
}

func TestFlushFiresPendingInput(t *testing.T) {
	client := newBlockingClient()
	apply, snapshot := collectResults()
	coord := New(client, nil, time.Hour, apply)
	defer coord.Close()

	coord.Input("dune")
	client.release("dune")
	coord.Flush()

	results := snapshot()
	if len(results) != 1 || results[0].Query != "dune" {
		t.Fatalf("results = %+v, want flushed fetch for %q", results, "dune")
	}
}

func TestCloseDropsInFlight(t *testing.T) {
	client := newBlockingClient()
	apply, snapshot := collectResults()
	coord := New(client, nil, 0, apply)

	coord.Input("hang")
	coord.Close()

	if results := snapshot(); len(results) != 0 {
		t.Fatalf("results after close = %+v, want none", results)
	}
	// Input after close is ignored.
	coord.Input("late")
	if got := client.fetchCount(); got != 1 {
		t.Fatalf("fetch count = %d, want 1", got)
	}
}
