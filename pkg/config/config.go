package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration, read from the environment.
type Config struct {
	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	Addr        string `env:"ADDR" envDefault:":3001"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`

	SheetID       string `env:"SHEET_ID"`
	SheetRange    string `env:"SHEET_RANGE" envDefault:"Sheet1!A2:Z1000"`
	SheetAPIKey   string `env:"SHEET_API_KEY"`
	SheetsBaseURL string `env:"SHEETS_BASE_URL" envDefault:"https://sheets.googleapis.com"`

	ExplorerAPIPrefix string `env:"EXPLORER_API_PREFIX" envDefault:"/api/v2"`
	// TVLEndpoint must answer ?projectId= with {"tvlData": [[ts, a, b, c], ...]}. The default is
	// this service's own /api/tvl, which relays TVLUpstreamURL's payload unchanged, so pointing
	// TVL_UPSTREAM_URL at a source with another shape leaves every TVL missing.
	TVLEndpoint       string `env:"TVL_ENDPOINT" envDefault:"http://localhost:3001/api/tvl"`
	TVLUpstreamURL    string `env:"TVL_UPSTREAM_URL" envDefault:"https://l2beat.com/api/trpc/tvl.chart"`

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	RPS             float64       `env:"UPSTREAM_RPS" envDefault:"20"`
	Burst           int           `env:"UPSTREAM_BURST" envDefault:"40"`
	BreakerFailures int           `env:"BREAKER_FAILURES" envDefault:"3"`
	BreakerCooldown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`

	EnrichWorkers int    `env:"ENRICH_WORKERS" envDefault:"32"`
	PaletteFile   string `env:"PALETTE_FILE"`

	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	TVLCacheTTL   time.Duration `env:"TVL_CACHE_TTL" envDefault:"5m"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the service cannot run with. An empty SHEET_ID is allowed here and
// surfaces as a source failure on the first run.
func (c Config) Validate() error {
	var errs []error
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.RPS <= 0 {
		errs = append(errs, errors.New("UPSTREAM_RPS must be positive"))
	}
	if c.Burst <= 0 {
		errs = append(errs, errors.New("UPSTREAM_BURST must be positive"))
	}
	if c.BreakerFailures < 1 {
		errs = append(errs, errors.New("BREAKER_FAILURES must be at least 1"))
	}
	if c.EnrichWorkers < 0 {
		errs = append(errs, errors.New("ENRICH_WORKERS must not be negative"))
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when REDIS_ENABLED"))
	}
	return errors.Join(errs...)
}
