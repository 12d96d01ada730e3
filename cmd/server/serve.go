package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/phrazzld/smartmark/internal/config"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the message API and the enrichment workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", true,
		"apply pending database migrations on startup (postgres backend only)")
	return cmd
}

func serve(ctx context.Context, opts options) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("Server configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"version", version)

	app, err := newApplication(ctx, cfg, log, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
