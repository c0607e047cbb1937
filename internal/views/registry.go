// Package views keeps the live server-side views of every browser client.
// A view is addressed by an opaque ID and may only be used by the client that
// created it.
package views

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"worldfolio/internal/platform/metrics"
	dErrors "worldfolio/pkg/domain-errors"
)

// View is anything the registry can close on eviction.
type View interface {
	Close() error
}

// ErrNotFound hides both unknown IDs and views owned by another client.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "view not found")

type entry[V View] struct {
	owner    string
	view     V
	lastSeen time.Time
}

// Registry indexes views of one kind by ID.
type Registry[V View] struct {
	kind    string
	idleTTL time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[V]
}

// NewRegistry creates a registry for views of the given kind ("discovery",
// "details"). Views untouched for idleTTL are evicted by StartCleanup.
func NewRegistry[V View](kind string, idleTTL time.Duration, logger *slog.Logger, m *metrics.Metrics) *Registry[V] {
	return &Registry[V]{
		kind:    kind,
		idleTTL: idleTTL,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		entries: make(map[string]*entry[V]),
	}
}

// Add registers view for owner and returns its new ID.
func (r *Registry[V]) Add(owner string, view V) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry[V]{owner: owner, view: view, lastSeen: r.now()}
	r.mu.Unlock()
	r.metrics.ViewOpened(r.kind)
	return id
}

// Get returns the view and marks it used.
func (r *Registry[V]) Get(owner, id string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		var zero V
		return zero, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.view, nil
}

// Remove closes and forgets the view.
func (r *Registry[V]) Remove(owner, id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.entries, id)
	r.mu.Unlock()

	r.metrics.ViewClosed(r.kind)
	return e.view.Close()
}

// Len returns the number of live views.
func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StartCleanup evicts idle views every interval until ctx is cancelled.
func (r *Registry[V]) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.EvictIdleAt(r.now()); n > 0 {
				r.logger.InfoContext(ctx, "evicted idle views", "kind", r.kind, "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// EvictIdleAt closes every view last used before now minus the idle TTL.
// Exported for testability; the cleanup loop passes wall-clock time.
func (r *Registry[V]) EvictIdleAt(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []V
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.view)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		r.metrics.ViewClosed(r.kind)
		r.metrics.ViewEvicted(r.kind)
		if err := v.Close(); err != nil {
			r.logger.Warn("failed to close idle view", "kind", r.kind, "error", err)
		}
	}
	return len(idle)
}

// Close closes every view.
func (r *Registry[V]) Close() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry[V])
	r.mu.Unlock()

	for _, e := range all {
		r.metrics.ViewClosed(r.kind)
		if err := e.view.Close(); err != nil {
			r.logger.Warn("failed to close view", "kind", r.kind, "error", err)
		}
	}
}
