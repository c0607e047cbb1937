// Package fetch models the lifecycle of an asynchronous fetch owned by a view:
// the four user-visible outcomes and the generation guard that keeps
// out-of-order responses from being applied.
package fetch

import "context"

// Status is the rendering state of a fetch site.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// Settled reports whether the status is terminal for the current request.
func (s Status) Settled() bool {
	return s != StatusLoading
}

// ListStatus picks ready or empty for a successful list fetch.
func ListStatus(n int) Status {
	if n == 0 {
		return StatusEmpty
	}
	return StatusReady
}

// Token identifies one issued request.
type Token uint64

// Guard is a monotonically increasing request generation. Every fetch is
// tagged with the token current at issue time, and its result may only be
// applied while that token is still current.
//
// Guard does no locking: the owning view serializes access with its own
// mutex so that the token check and the state mutation are atomic.
type Guard struct {
	current Token
	cancel  context.CancelFunc
	changed chan struct{}
}

// Next supersedes the in-flight request, if any, and returns the context and
// token for a new one. The previous request's context is cancelled.
func (g *Guard) Next(parent context.Context) (context.Context, Token) {
	if g.cancel != nil {
		g.cancel()
	}
	g.signal()
	g.current++
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	return ctx, g.current
}

// IsCurrent reports whether t is the most recently issued token.
func (g *Guard) IsCurrent(t Token) bool {
	return t != 0 && t == g.current
}

// Settle marks the request identified by t as finished. It returns false,
// and does nothing, when t has been superseded.
func (g *Guard) Settle(t Token) bool {
	if !g.IsCurrent(t) {
		return false
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.signal()
	return true
}

// Invalidate makes every outstanding token stale without issuing a new request.
func (g *Guard) Invalidate() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.signal()
	g.current++
}

// Changed returns a channel closed on the next Next, Settle or Invalidate.
func (g *Guard) Changed() <-chan struct{} {
	if g.changed == nil {
		g.changed = make(chan struct{})
	}
	return g.changed
}

func (g *Guard) signal() {
	if g.changed != nil {
		close(g.changed)
		g.changed = nil
	}
}
