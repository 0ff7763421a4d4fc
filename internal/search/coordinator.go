// Package search coordinates debounced query input against the movie metadata
// service and the telemetry recorder. It reproduces the discovery UI's control
// flow: input events reset a quiet-interval timer, the settled value is
// fetched, and only the latest-issued fetch may apply its results.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/filmscout/filmscout/internal/domain"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/telemetry"
)

// Result is delivered to the apply callback for each settled query.
type Result struct {
	Query  string
	Movies []domain.MovieSummary
	Err    error
}

// Recorder is the telemetry surface the coordinator needs.
type Recorder interface {
	Record(ctx context.Context, term string, movie domain.MovieSummary) telemetry.Outcome
}

// Coordinator debounces input and tags every issued fetch with a generation.
// A response whose generation no longer matches the latest issued one is
// dropped, so a slow older response can never overwrite a newer one.
type Coordinator struct {
	client   metadata.Client
	recorder Recorder
	interval time.Duration
	apply    func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	timer      *time.Timer
	pending    string
	hasPending bool
	generation uint64
	delivered  uint64
	closed     bool

	// applyMu serializes result delivery so applications happen in
	// generation order even when fetches resolve out of order.
	applyMu sync.Mutex
}

// New constructs a Coordinator. recorder may be nil to disable telemetry.
// An interval of zero fetches on every input event without debouncing.
func New(client metadata.Client, recorder Recorder, interval time.Duration, apply func(Result)) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		client:   client,
		recorder: recorder,
		interval: interval,
		apply:    apply,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Input registers a new query value, rescheduling the pending fetch. Only the
// value that has been quiescent for the full interval is ever queried.
func (c *Coordinator) Input(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending = term
	c.hasPending = true

	if c.interval <= 0 {
		c.fireLocked()
		return
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.interval, c.fire)
		return
	}
	c.timer.Reset(c.interval)
}

// Flush issues the pending fetch immediately, if any, and waits for all
// in-flight fetches to finish applying.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.hasPending && !c.closed {
		c.fireLocked()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Close cancels in-flight fetches and waits for them to drain. Further Input
// calls are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.hasPending {
		return
	}
	c.fireLocked()
}

// fireLocked issues a generation-tagged fetch for the pending term.
// Callers must hold c.mu.
func (c *Coordinator) fireLocked() {
	term := c.pending
	c.hasPending = false
	c.generation++
	gen := c.generation

	c.wg.Add(1)
	go c.fetch(gen, term)
}

func (c *Coordinator) fetch(gen uint64, term string) {
	defer c.wg.Done()

	movies, err := c.client.FetchMovies(c.ctx, term)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	stale := gen != c.generation || gen <= c.delivered || c.closed
	if !stale {
		c.delivered = gen
	}
	c.mu.Unlock()
	if stale {
		return
	}

	if err == nil && term != "" && len(movies) > 0 && c.recorder != nil {
		c.recorder.Record(c.ctx, term, movies[0])
	}

	if c.apply != nil {
		c.apply(Result{Query: term, Movies: movies, Err: err})
	}
}
