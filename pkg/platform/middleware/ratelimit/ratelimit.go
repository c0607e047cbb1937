// Package ratelimit throttles API calls per browser client so a single client
// cannot exhaust the upstream provider quotas.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/platform/httputil"
	"worldfolio/pkg/requestcontext"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a limiter allowing perSecond sustained requests with burst.
func New(perSecond float64, burst int, logger *slog.Logger) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = l.now()
	return e.limiter.AllowN(e.lastSeen, 1)
}

// keyFor buckets known clients by ID. Requests without an ID, or with one
// minted for this very request, share the bucket of their IP.
func keyFor(ctx context.Context) string {
	if id := requestcontext.ClientID(ctx); id != "" && !requestcontext.ClientIDIssued(ctx) {
		return "client:" + id
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

// Middleware rejects requests over the client's budget with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := keyFor(ctx)

		if !l.allow(key) {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", "1")
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sweep drops buckets idle for longer than idle and returns how many went.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}
