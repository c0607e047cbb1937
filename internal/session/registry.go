package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"worldfolio/internal/platform/metrics"
)

const gateKind = "session"

type gateEntry struct {
	gate     *Gate
	start    sync.Once
	lastSeen time.Time
}

// Registry owns one started Gate per browser client. Gates are created on
// first use and closed when idle or on shutdown.
type Registry struct {
	provider Provider
	store    SnapshotStore
	idleTTL  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	// beforeStart runs between lookup and start; tests use it to interleave
	// an eviction.
	beforeStart func()

	mu    sync.Mutex
	gates map[string]*gateEntry
}

func NewRegistry(provider Provider, store SnapshotStore, idleTTL time.Duration, logger *slog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		provider: provider,
		store:    store,
		idleTTL:  idleTTL,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		gates:    make(map[string]*gateEntry),
	}
}

// Gate returns clientID's gate, starting it on first use. A gate evicted
// before it could start is replaced with a fresh one.
func (r *Registry) Gate(ctx context.Context, clientID string) *Gate {
	for {
		e := r.lookup(clientID)
		if r.beforeStart != nil {
			r.beforeStart()
		}
		e.start.Do(func() {
			e.gate.Start(ctx)
		})

		r.mu.Lock()
		registered := r.gates[clientID] == e
		r.mu.Unlock()
		if registered {
			return e.gate
		}
	}
}

func (r *Registry) lookup(clientID string) *gateEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.gates[clientID]
	if !ok {
		e = &gateEntry{gate: NewGate(clientID, r.provider, r.store, r.logger, r.metrics)}
		r.gates[clientID] = e
		r.metrics.ViewOpened(gateKind)
	}
	e.lastSeen = r.now()
	return e
}

// Len returns the number of live gates.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

// StartCleanup closes idle gates every interval until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.EvictIdleAt(r.now()); n > 0 {
				r.logger.InfoContext(ctx, "evicted idle session gates", "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// EvictIdleAt closes gates last used before now minus the idle TTL.
func (r *Registry) EvictIdleAt(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*gateEntry
	for id, e := range r.gates {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(r.gates, id)
		}
	}
	r.mu.Unlock()

	for _, e := range idle {
		r.metrics.ViewClosed(gateKind)
		r.metrics.ViewEvicted(gateKind)
		r.closeGate(e)
	}
	return len(idle)
}

// Close unsubscribes every gate.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.gates
	r.gates = make(map[string]*gateEntry)
	r.mu.Unlock()

	for _, e := range all {
		r.metrics.ViewClosed(gateKind)
		r.closeGate(e)
	}
}

func (r *Registry) closeGate(e *gateEntry) {
	// A gate evicted before its first Start must not start afterwards.
	e.start.Do(func() {})
	if err := e.gate.Close(); err != nil {
		r.logger.Warn("failed to close session gate", "error", err)
	}
}
