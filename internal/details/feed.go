package details

import (
	"context"
	"sync"

	"worldfolio/internal/platform/metrics"
	"worldfolio/pkg/fetch"
)

// FeedState is the rendered snapshot of a side widget.
type FeedState[T any] struct {
	Subject string       `json:"subject"`
	Status  fetch.Status `json:"status"`
	Items   []T          `json:"items"`
}

// Feed is a side widget (gallery, news) that loads a list for the current
// subject's display name. Each load supersedes the previous one.
type Feed[T any] struct {
	kind    string
	source  func(ctx context.Context, name string) []T
	limit   int
	metrics *metrics.Metrics

	mu      sync.Mutex
	guard   fetch.Guard
	subject string
	status  fetch.Status
	items   []T
	closed  bool

	wg sync.WaitGroup
}

// NewFeed creates an idle feed showing at most limit items.
func NewFeed[T any](kind string, source func(ctx context.Context, name string) []T, limit int, m *metrics.Metrics) *Feed[T] {
	return &Feed[T]{
		kind:    kind,
		source:  source,
		limit:   limit,
		metrics: m,
		status:  fetch.StatusIdle,
		items:   []T{},
	}
}

// Load starts fetching items for name.
func (f *Feed[T]) Load(ctx context.Context, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.subject = name
	f.status = fetch.StatusLoading
	f.items = []T{}
	fctx, token := f.guard.Next(context.WithoutCancel(ctx))

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		items := f.source(fctx, name)
		f.apply(token, items)
	}()
}

func (f *Feed[T]) apply(token fetch.Token, items []T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.guard.IsCurrent(token) {
		f.metrics.StaleResult(f.kind)
		return
	}
	if len(items) > f.limit {
		items = items[:f.limit]
	}
	if items == nil {
		items = []T{}
	}
	f.items = items
	f.status = fetch.ListStatus(len(items))
	f.guard.Settle(token)
}

// Reset returns the feed to idle and discards any in-flight load.
func (f *Feed[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guard.Invalidate()
	f.subject = ""
	f.status = fetch.StatusIdle
	f.items = []T{}
}

// State returns a snapshot for rendering.
func (f *Feed[T]) State() FeedState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]T, len(f.items))
	copy(items, f.items)
	return FeedState[T]{Subject: f.subject, Status: f.status, Items: items}
}

// Wait blocks until the feed is not loading or ctx is done.
func (f *Feed[T]) Wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		if f.status.Settled() || f.closed {
			f.mu.Unlock()
			return nil
		}
		changed := f.guard.Changed()
		f.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels in-flight loads and waits for them.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.guard.Invalidate()
	f.mu.Unlock()
	f.wg.Wait()
}
