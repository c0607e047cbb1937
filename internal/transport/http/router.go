// Package httptransport assembles the public HTTP surface: shared
// middleware, operational endpoints and the per-domain handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"worldfolio/internal/country"
	"worldfolio/pkg/platform/httputil"
	"worldfolio/pkg/platform/middleware/client"
	"worldfolio/pkg/platform/middleware/metadata"
	"worldfolio/pkg/platform/middleware/ratelimit"
	"worldfolio/pkg/platform/middleware/requesttime"
	"worldfolio/pkg/requestcontext"
)

// Registrar mounts a domain's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configures the router.
type Options struct {
	Logger         *slog.Logger
	Gatherer       prometheus.Gatherer
	Limiter        *ratelimit.Limiter
	SecureCookies  bool
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires middleware, operational endpoints and every handler.
// Health and metrics sit outside client identification and rate limiting.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(accessLog(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(client.Middleware(opts.SecureCookies))
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Get("/countries/regions", handleRegions)
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(r.Context()); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}

func handleRegions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]country.Region{"regions": country.Regions})
}

// accessLog writes one structured line per request.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
