package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/app/api/types"
	"github.com/rollups-terminal/rollupsx/pkg/config"
	"github.com/rollups-terminal/rollupsx/pkg/enrich"
	"github.com/rollups-terminal/rollupsx/pkg/explorer"
	"github.com/rollups-terminal/rollupsx/pkg/logging"
	"github.com/rollups-terminal/rollupsx/pkg/metrics"
	"github.com/rollups-terminal/rollupsx/pkg/palette"
	"github.com/rollups-terminal/rollupsx/pkg/pipeline"
	"github.com/rollups-terminal/rollupsx/pkg/redis"
	"github.com/rollups-terminal/rollupsx/pkg/sheet"
	"github.com/rollups-terminal/rollupsx/pkg/tvl"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
)

// Components are the wired domain services shared by the HTTP service and the CLI.
type Components struct {
	Upstream *upstream.Client
	Sheet    *sheet.Client
	Explorer *explorer.Client
	Resolver *tvl.Resolver
	Proxy    *tvl.Proxy
	Enricher *enrich.Enricher
	Pipeline *pipeline.Pipeline
	Palette  *palette.Palette
	Cache    *redis.Client
}

// Build wires the domain services from cfg. Redis is optional: when it cannot be reached the
// TVL proxy runs uncached.
func Build(ctx context.Context, cfg config.Config, m *metrics.Registry, logger *zap.Logger) (*Components, error) {
	pal, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		return nil, err
	}

	hc := upstream.New(upstream.Opts{
		Timeout:         cfg.UpstreamTimeout,
		RPS:             cfg.RPS,
		Burst:           cfg.Burst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
		Metrics:         m,
		Logger:          logger,
	})

	var proxyOpts []tvl.ProxyOption
	var cache *redis.Client
	if cfg.RedisEnabled {
		cache, err = redis.NewClient(ctx, redis.Opts{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - TVL responses will not be cached", zap.Error(err))
			cache = nil
		} else {
			proxyOpts = append(proxyOpts, tvl.WithCache(cache, cfg.TVLCacheTTL))
		}
	} else {
		logger.Info("Redis disabled - TVL responses will not be cached")
	}

	c := &Components{
		Upstream: hc,
		Sheet: sheet.NewClient(hc, sheet.Opts{
			BaseURL:       cfg.SheetsBaseURL,
			SpreadsheetID: cfg.SheetID,
			Range:         cfg.SheetRange,
			APIKey:        cfg.SheetAPIKey,
			Timeout:       cfg.UpstreamTimeout,
		}, logger),
		Explorer: explorer.NewClient(hc, cfg.ExplorerAPIPrefix, cfg.UpstreamTimeout, logger),
		Resolver: tvl.NewResolver(hc, cfg.TVLEndpoint, cfg.UpstreamTimeout, logger),
		Proxy:    tvl.NewProxy(hc, cfg.TVLUpstreamURL, cfg.UpstreamTimeout, logger, proxyOpts...),
		Palette:  pal,
		Cache:    cache,
	}
	c.Enricher = enrich.New(c.Explorer, c.Resolver, cfg.EnrichWorkers, logger, enrich.WithMetrics(m))
	c.Pipeline = pipeline.New(c.Sheet, c.Enricher, m, logger)
	return c, nil
}

// Close releases the worker pool and the cache connection.
func (c *Components) Close() error {
	c.Enricher.Close()
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	cfg, err := config.Load()
	if err != nil {
		// nothing else to do here, the logger depends on the config
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}

	m := metrics.NewRegistry()
	c, err := Build(ctx, cfg, m, logger)
	if err != nil {
		logger.Fatal("Unable to initialize components", zap.Error(err))
	}

	if cfg.SheetID == "" {
		logger.Warn("SHEET_ID is not set - dashboard requests will fail until it is configured")
	}

	return &types.App{
		Addr:     cfg.Addr,
		Pipeline: c.Pipeline,
		TVL:      c.Proxy,
		Palette:  c.Palette,
		Metrics:  m,
		Now:      time.Now,
		Closers:  []func() error{c.Close},
		Logger:   logger,
	}
}
