// Package loader implements the fetch-then-filter pattern shared by every
// listing view: fetch a collection once, keep it in memory, and re-derive the
// visible subset whenever the query or facet changes.
package loader

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/diaglab/diaglab/internal/platform/notify"
	"github.com/diaglab/diaglab/internal/platform/search"
)

// FetchFunc loads the full collection from the backend.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Option configures a View.
type Option[T any] func(*View[T])

// WithFailureMessage sets the notification text sent when Load fails.
func WithFailureMessage[T any](msg string) Option[T] {
	return func(v *View[T]) { v.failureMsg = msg }
}

// WithFacet sets the initial facet.
func WithFacet[T any](facet string) Option[T] {
	return func(v *View[T]) { v.facet = facet }
}

// View holds one fetched collection plus the current query and facet.
type View[T any] struct {
	fetch      FetchFunc[T]
	matcher    search.Matcher[T]
	notifier   notify.Notifier
	logger     zerolog.Logger
	failureMsg string

	mu      sync.RWMutex
	records []T
	query   string
	facet   string
	loaded  bool
}

func NewView[T any](fetch FetchFunc[T], matcher search.Matcher[T], notifier notify.Notifier, logger zerolog.Logger, opts ...Option[T]) *View[T] {
	if notifier == nil {
		notifier = notify.Nop()
	}
	v := &View[T]{
		fetch:      fetch,
		matcher:    matcher,
		notifier:   notifier,
		logger:     logger,
		failureMsg: "Failed to load data",
		facet:      search.All,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Load fetches the collection. On failure the error is logged, the user is
// notified, previously loaded records are kept, and the error is returned.
func (v *View[T]) Load(ctx context.Context) error {
	records, err := v.fetch(ctx)
	if err != nil {
		v.logger.Error().Err(err).Msg(v.failureMsg)
		v.notifier.Error(v.failureMsg)
		return err
	}

	v.mu.Lock()
	v.records = records
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Loaded reports whether at least one Load succeeded.
func (v *View[T]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// SetQuery changes the free-text query and returns the new visible subset.
func (v *View[T]) SetQuery(q string) []T {
	v.mu.Lock()
	v.query = q
	v.mu.Unlock()
	return v.Visible()
}

// SetFacet changes the facet and returns the new visible subset.
func (v *View[T]) SetFacet(f string) []T {
	v.mu.Lock()
	v.facet = f
	v.mu.Unlock()
	return v.Visible()
}

// Filtering reports whether a query or facet is narrowing the view.
func (v *View[T]) Filtering() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query != "" || !search.IsAll(v.facet)
}

// Visible derives the filtered records from the current state.
func (v *View[T]) Visible() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.matcher.Apply(v.records, v.query, v.facet)
}

// Records returns a copy of the full, unfiltered collection.
func (v *View[T]) Records() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]T, len(v.records))
	copy(out, v.records)
	return out
}

// All runs independent fetches concurrently and waits for every one of them.
// The first error cancels the shared context and is returned.
func All(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(ctx) })
	}
	return g.Wait()
}
