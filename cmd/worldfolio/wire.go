package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"worldfolio/internal/catalog"
	"worldfolio/internal/details"
	"worldfolio/internal/discovery"
	"worldfolio/internal/enrichment/ai"
	"worldfolio/internal/enrichment/images"
	"worldfolio/internal/enrichment/news"
	"worldfolio/internal/identity"
	"worldfolio/internal/identity/firebase"
	"worldfolio/internal/identity/local"
	"worldfolio/internal/platform/config"
	"worldfolio/internal/platform/metrics"
	"worldfolio/internal/platform/redis"
	"worldfolio/internal/session"
	"worldfolio/internal/upstream"
)

const snapshotTTL = 30 * 24 * time.Hour

// services holds every long-lived dependency built from configuration.
type services struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	redis   *redis.Client

	catalog catalog.Catalog
	ai      *ai.Client
	images  *images.Client
	news    *news.Client

	provider session.Provider
	snapshot session.SnapshotStore
}

func buildServices(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*services, error) {
	upstreamMetrics := upstream.NewMetrics(reg)
	withMetrics := upstream.WithMetrics(upstreamMetrics)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	var countries catalog.Catalog = catalog.New(cfg.Upstreams.CatalogBaseURL,
		upstream.NewClient("restcountries", cfg.Upstreams.CatalogTimeout, withMetrics))
	snapshots := session.SnapshotStore(session.NewInMemorySnapshotStore())
	if rdb != nil {
		countries = catalog.NewCached(countries, rdb, cfg.Upstreams.CatalogTTL, logger)
		snapshots = session.NewRedisSnapshotStore(rdb, snapshotTTL)
		logger.InfoContext(ctx, "redis enabled for catalog cache and session snapshots")
	}

	aiClient, err := ai.New(ctx, cfg.Upstreams.GeminiAPIKey, cfg.Upstreams.GeminiModel,
		ai.WithLogger(logger),
		ai.WithMetrics(upstreamMetrics),
		ai.WithTimeout(cfg.Upstreams.EnrichmentTimeout),
	)
	if err != nil {
		return nil, err
	}

	imageClient := images.New(cfg.Upstreams.UnsplashBaseURL, cfg.Upstreams.UnsplashAccessKey,
		upstream.NewClient("unsplash", cfg.Upstreams.EnrichmentTimeout, withMetrics), logger)
	newsClient := news.New(news.Config{
		GNewsBaseURL: cfg.Upstreams.GNewsBaseURL,
		GNewsAPIKey:  cfg.Upstreams.GNewsAPIKey,
		RSSURL:       cfg.Upstreams.NewsRSSURL,
	}, upstream.NewClient("news", cfg.Upstreams.EnrichmentTimeout, withMetrics), logger)

	provider, err := buildProvider(cfg, logger, withMetrics)
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewWith(reg),
		redis:    rdb,
		catalog:  countries,
		ai:       aiClient,
		images:   imageClient,
		news:     newsClient,
		provider: provider,
		snapshot: snapshots,
	}, nil
}

func buildProvider(cfg config.Config, logger *slog.Logger, withMetrics upstream.Option) (session.Provider, error) {
	hub := identity.NewHub()
	id := cfg.Identity
	switch id.Provider {
	case config.ProviderLocal:
		tokens := local.NewTokenService(id.JWTSigningKey, "worldfolio", id.TokenTTL)
		return local.New(hub, tokens, local.WithLogger(logger)), nil
	case config.ProviderFirebase:
		client := upstream.NewClient("firebase", cfg.Upstreams.EnrichmentTimeout, withMetrics)
		return firebase.New(id.FirebaseURL, id.FirebaseAPIKey, client, hub, logger), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", id.Provider)
	}
}

func (s *services) newDiscovery() (*discovery.Controller, error) {
	return discovery.New(s.catalog, s.ai,
		discovery.WithLogger(s.logger),
		discovery.WithMetrics(s.metrics),
		discovery.WithSuggestDelay(s.cfg.Views.SuggestDelay),
	)
}

func (s *services) newDetails() (*details.Aggregator, error) {
	return details.New(s.catalog, s.ai, s.images, s.news,
		details.WithLogger(s.logger),
		details.WithMetrics(s.metrics),
	)
}

func (s *services) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close redis", "error", err)
		}
	}
}
