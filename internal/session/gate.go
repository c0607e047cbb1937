// Package session tracks who is signed in for each browser client. The
// identity provider's events are the only authority; a persisted snapshot
// is shown until the first event arrives.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"worldfolio/internal/identity"
	"worldfolio/internal/platform/metrics"
)

const persistTimeout = 3 * time.Second

// Provider is the identity provider port.
type Provider interface {
	SignUp(ctx context.Context, clientID, email, password string) (identity.Session, error)
	SignIn(ctx context.Context, clientID, email, password string) (identity.Session, error)
	SignOut(ctx context.Context, clientID string) error
	Subscribe(clientID string) (<-chan identity.Event, func())
}

// TokenVerifier is implemented by providers that can check an ID token they
// issued. A restored snapshot whose token fails the check is discarded.
type TokenVerifier interface {
	Verify(clientID, token string) (identity.Session, error)
}

// State is what the header and router render from.
type State struct {
	Session *identity.Session `json:"session"`
	// Confirmed is false while the view still shows the persisted snapshot.
	Confirmed bool `json:"confirmed"`
}

// Gate holds one browser client's current session.
type Gate struct {
	clientID string
	provider Provider
	store    SnapshotStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu          sync.Mutex
	current     *identity.Session
	confirmed   bool
	started     bool
	unsubscribe func()
	changed     chan struct{}
	done        chan struct{}
}

func NewGate(clientID string, provider Provider, store SnapshotStore, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{
		clientID: clientID,
		provider: provider,
		store:    store,
		logger:   logger,
		metrics:  m,
		changed:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start restores the persisted snapshot and subscribes to provider events.
// It must be called once before the gate is used.
func (g *Gate) Start(ctx context.Context) {
	snap, err := g.store.Load(ctx, g.clientID)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to load session snapshot", "client_id", g.clientID, "error", err)
	}
	snap = g.verifySnapshot(ctx, snap)

	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.current = snap
	events, unsubscribe := g.provider.Subscribe(g.clientID)
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	go g.run(context.WithoutCancel(ctx), events)
}

// verifySnapshot drops a snapshot whose ID token the provider rejects, so a
// forged or expired snapshot is never shown.
func (g *Gate) verifySnapshot(ctx context.Context, snap *identity.Session) *identity.Session {
	verifier, ok := g.provider.(TokenVerifier)
	if snap == nil || !ok {
		return snap
	}
	_, err := verifier.Verify(g.clientID, snap.IDToken)
	if err == nil {
		return snap
	}
	g.logger.InfoContext(ctx, "discarding unverifiable session snapshot", "client_id", g.clientID, "error", err)
	if err := g.store.Delete(ctx, g.clientID); err != nil {
		g.logger.WarnContext(ctx, "failed to delete session snapshot", "client_id", g.clientID, "error", err)
	}
	return nil
}

func (g *Gate) run(ctx context.Context, events <-chan identity.Event) {
	defer close(g.done)
	for ev := range events {
		g.apply(ctx, ev)
	}
}

// apply overwrites the current session with the provider's, even when that
// signs the user out, then mirrors it into the snapshot store.
func (g *Gate) apply(ctx context.Context, ev identity.Event) {
	g.mu.Lock()
	g.current = ev.Session
	g.confirmed = true
	close(g.changed)
	g.changed = make(chan struct{})
	g.mu.Unlock()

	g.metrics.SessionEvent(ev.Session != nil)

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	var err error
	if ev.Session == nil {
		err = g.store.Delete(pctx, g.clientID)
	} else {
		err = g.store.Save(pctx, g.clientID, *ev.Session)
	}
	if err != nil {
		g.logger.WarnContext(ctx, "failed to persist session snapshot", "client_id", g.clientID, "error", err)
	}
}

// Signup creates an account. Provider errors are returned unchanged.
func (g *Gate) Signup(ctx context.Context, email, password string) (identity.Session, error) {
	return g.provider.SignUp(ctx, g.clientID, email, password)
}

// Login signs in. Provider errors are returned unchanged.
func (g *Gate) Login(ctx context.Context, email, password string) (identity.Session, error) {
	return g.provider.SignIn(ctx, g.clientID, email, password)
}

// Logout signs out. Provider errors are returned unchanged.
func (g *Gate) Logout(ctx context.Context) error {
	return g.provider.SignOut(ctx, g.clientID)
}

// State returns the current session.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Gate) stateLocked() State {
	var s *identity.Session
	if g.current != nil {
		c := *g.current
		s = &c
	}
	return State{Session: s, Confirmed: g.confirmed}
}

// WaitConfirmed blocks until the provider has reported state at least once
// or ctx is done.
func (g *Gate) WaitConfirmed(ctx context.Context) (State, error) {
	for {
		g.mu.Lock()
		if g.confirmed {
			state := g.stateLocked()
			g.mu.Unlock()
			return state, nil
		}
		changed := g.changed
		g.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return g.State(), ctx.Err()
		}
	}
}

// Close unsubscribes and waits for the event loop to exit.
func (g *Gate) Close() error {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe == nil {
		return nil
	}
	unsubscribe()
	<-g.done
	return nil
}
