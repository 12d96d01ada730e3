package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/smartmark/internal/config"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// migrationCommands are the goose commands exposed by "smartmark migrate".
var migrationCommands = []string{"up", "down", "status", "version", "reset", "redo"}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset|redo]",
		Short:     "Manage the postgres schema",
		Long:      `Runs a goose command against the embedded migrations. Only the postgres store backend uses a schema.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return runMigrations(cmd.Context(), command)
		},
	}
}

func runMigrations(ctx context.Context, command string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Store.Backend != backendPostgres {
		return fmt.Errorf("migrations require the postgres store backend, configured backend is %q", cfg.Store.Backend)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.Store.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database connection", "error", closeErr)
		}
	}()

	return postgres.Migrate(ctx, db, command, log)
}
