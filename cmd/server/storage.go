package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/smartmark/internal/config"
	"github.com/phrazzld/smartmark/internal/platform/badger"
	"github.com/phrazzld/smartmark/internal/platform/memory"
	"github.com/phrazzld/smartmark/internal/platform/postgres"
	"github.com/phrazzld/smartmark/internal/platform/redis"
	"github.com/phrazzld/smartmark/internal/store"
)

// Store backends
const (
	backendMemory   = "memory"
	backendBadger   = "badger"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

// openKV opens the configured key-value backend. The returned *sql.DB is
// non-nil only for postgres; it is owned by the KV and closed with it.
func openKV(ctx context.Context, cfg config.StoreConfig, autoMigrate bool, logger *slog.Logger) (store.KV, *sql.DB, error) {
	switch cfg.Backend {
	case backendMemory:
		logger.Warn("using in-memory store, bookmarks will not survive a restart")
		return memory.NewKV(), nil, nil

	case backendBadger:
		kv, err := badger.Open(cfg.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store at %s: %w", cfg.Path, err)
		}
		logger.Info("badger store opened", "path", cfg.Path)
		return kv, nil, nil

	case backendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if autoMigrate {
			if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return postgres.NewKV(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

// openSessions opens the tab binding store.
func openSessions(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (store.SessionStore, error) {
	switch cfg.Backend {
	case backendMemory:
		return memory.NewSessionStore(cfg.TTL()), nil

	case backendRedis:
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("redis session store connected", "addr", cfg.RedisAddr, "ttl", cfg.TTL())
		return redis.NewSessionStore(client, cfg.TTL()), nil

	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Backend)
	}
}
