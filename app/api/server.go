package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/app/api/controller"
	"github.com/rollups-terminal/rollupsx/app/api/types"
)

// NewServer builds the router and attaches an http.Server to app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	app.Server = &http.Server{
		Addr:              app.Addr,
		Handler:           controller.WithCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.Logger.Info("Starting server", zap.String("addr", app.Addr))

	return nil
}
