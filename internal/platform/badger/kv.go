// Package badger provides a store.KV backed by an embedded Badger database,
// the default durable backend for a single-user daemon.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/phrazzld/smartmark/internal/store"
)

// KV is a store.KV persisted in a Badger directory.
type KV struct {
	db     *badgerdb.DB
	logger *slog.Logger
}

var _ store.KV = (*KV)(nil)

// Open opens or creates the database at dir. An empty dir opens an
// in-memory database.
func Open(dir string, logger *slog.Logger) (*KV, error) {
	opts := badgerdb.DefaultOptions(dir).
		WithLoggingLevel(badgerdb.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "badger_kv")
	logger.Info("badger store opened", "dir", dir)

	return &KV{db: db, logger: logger}, nil
}

// Get returns the value of key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := k.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, store.ErrKeyNotFound
	}
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return nil, store.ErrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return value, nil
}

// Set replaces the value of key.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	err := k.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return store.ErrClosed
	}
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Delete removes every key in one transaction.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	err := k.db.Update(func(txn *badgerdb.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return store.ErrClosed
	}
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (k *KV) Close() error {
	k.logger.Info("closing badger store")
	return k.db.Close()
}
