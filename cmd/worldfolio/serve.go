package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"worldfolio/internal/details"
	detailshandler "worldfolio/internal/details/handler"
	"worldfolio/internal/discovery"
	discoveryhandler "worldfolio/internal/discovery/handler"
	"worldfolio/internal/platform/httpserver"
	"worldfolio/internal/session"
	sessionhandler "worldfolio/internal/session/handler"
	httptransport "worldfolio/internal/transport/http"
	"worldfolio/internal/views"
	"worldfolio/pkg/platform/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			svc, err := buildServices(ctx, cfg, logger, reg)
			if err != nil {
				return err
			}
			defer svc.Close()

			discoveryViews := views.NewRegistry[*discovery.Controller]("discovery", cfg.Views.IdleTTL, logger, svc.metrics)
			detailViews := views.NewRegistry[*details.Aggregator]("details", cfg.Views.IdleTTL, logger, svc.metrics)
			gates := session.NewRegistry(svc.provider, svc.snapshot, cfg.Views.IdleTTL, logger, svc.metrics)
			limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, logger)

			checks := map[string]httptransport.HealthCheck{}
			if svc.redis != nil {
				checks["redis"] = svc.redis.Health
			}
			router := httptransport.NewRouter(httptransport.Options{
				Logger:         logger,
				Gatherer:       reg,
				Limiter:        limiter,
				SecureCookies:  cfg.Server.SecureCookies,
				RequestTimeout: cfg.Views.WaitTimeout + 5*time.Second,
				Checks:         checks,
			},
				sessionhandler.New(gates, logger, cfg.Views.WaitTimeout),
				discoveryhandler.New(discoveryViews, svc.newDiscovery, logger, cfg.Views.WaitTimeout),
				detailshandler.New(detailViews, svc.newDetails, logger, cfg.Views.WaitTimeout),
			)
			srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.WriteTimeout)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.InfoContext(gctx, "starting worldfolio", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error { return ignoreCanceled(discoveryViews.StartCleanup(gctx, cfg.Views.SweepEvery)) })
			g.Go(func() error { return ignoreCanceled(detailViews.StartCleanup(gctx, cfg.Views.SweepEvery)) })
			g.Go(func() error { return ignoreCanceled(gates.StartCleanup(gctx, cfg.Views.SweepEvery)) })
			g.Go(func() error { return ignoreCanceled(sweepLimiter(gctx, limiter, cfg.Views.SweepEvery, cfg.Views.IdleTTL)) })
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
				defer cancel()
				err := srv.Shutdown(shutdownCtx)
				discoveryViews.Close()
				detailViews.Close()
				gates.Close()
				return err
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides WORLDFOLIO_ADDR")
	return cmd
}

func sweepLimiter(ctx context.Context, limiter *ratelimit.Limiter, every, idle time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			limiter.Sweep(idle)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
