package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/dashboard"
	"github.com/rollups-terminal/rollupsx/pkg/metrics"
	"github.com/rollups-terminal/rollupsx/pkg/pipeline"
)

// Runner produces one enriched snapshot per call.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Snapshot, error)
}

// TVLProxy returns the raw TVL chart payload for a project.
type TVLProxy interface {
	Fetch(ctx context.Context, projectID string) ([]byte, error)
}

type App struct {
	// Addr is <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces.
	Addr     string
	Pipeline Runner
	TVL      TVLProxy
	Palette  dashboard.Colors
	Metrics  *metrics.Registry
	// Now is the clock used for date-range filters.
	Now func() time.Time
	// Closers run on shutdown, in order.
	Closers []func() error
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	for _, c := range a.Closers {
		if err := c(); err != nil {
			a.Logger.Error("Failed to release resource", zap.Error(err))
		}
	}
	a.Logger.Info("さようなら!")
}
