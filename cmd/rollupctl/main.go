package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rollups-terminal/rollupsx/app/api"
	"github.com/rollups-terminal/rollupsx/pkg/config"
	"github.com/rollups-terminal/rollupsx/pkg/logging"
)

var logLevel string

// rootCmd is the base command for the rollupctl CLI
var rootCmd = &cobra.Command{
	Use:   "rollupctl",
	Short: "One-shot access to the rollup metadata pipeline",
	Long: `rollupctl runs the same sheet, explorer and TVL pipeline as the API service,
once, and prints the result. Configuration is read from the same environment
variables as the service.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
}

// setup loads the config and wires the domain services for a single command.
func setup(ctx context.Context) (*api.Components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logLevel, "console")
	if err != nil {
		return nil, err
	}
	return api.Build(ctx, cfg, nil, logger)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
