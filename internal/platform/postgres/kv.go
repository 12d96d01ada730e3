package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/store"
)

// KV implements store.KV on the kv_entries table.
type KV struct {
	db *sql.DB
}

var _ store.KV = (*KV)(nil)

// NewKV creates a KV over an open database. The caller runs migrations first.
func NewKV(db *sql.DB) *KV {
	return &KV{db: db}
}

// Get returns the value of key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, k.db, key)
}

// Set upserts the value of key.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := setEntry(ctx, k.db, key, value); err != nil {
		logger.FromContext(ctx).Error("failed to write kv entry", "key", key, "error", err)
		return err
	}
	return nil
}

// Delete removes every key in one transaction.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return store.RunInTransaction(ctx, k.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, key := range keys {
			if err := deleteEntry(ctx, tx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (k *KV) Close() error {
	return k.db.Close()
}

func getEntry(ctx context.Context, q store.DBTX, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		return nil, MapError(err)
	}
	return value, nil
}

func setEntry(ctx context.Context, q store.DBTX, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	return MapError(err)
}

func deleteEntry(ctx context.Context, q store.DBTX, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	return MapError(err)
}
