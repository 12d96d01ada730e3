package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/smartmark/internal/events"
)

// ErrNilKV is returned when Store is constructed without a backend.
var ErrNilKV = errors.New("kv backend cannot be nil")

// Store is the typed repository over a KV backend. Every read-modify-write
// runs under one writer lock so concurrent handlers cannot lose updates.
// Reads take the same lock so they never observe a half-applied batch.
type Store struct {
	kv      KV
	emitter events.EventEmitter
	logger  *slog.Logger
	mu      sync.Mutex
}

// New creates a Store. A nil emitter disables change notifications.
func New(kv KV, emitter events.EventEmitter, logger *slog.Logger) (*Store, error) {
	if kv == nil {
		return nil, ErrNilKV
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		kv:      kv,
		emitter: emitter,
		logger:  logger.With("component", "store"),
	}, nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// locked runs fn under the writer lock and announces the keys it reports as
// written once the lock is released, so handlers may call back into Store.
func (s *Store) locked(ctx context.Context, fn func() ([]string, error)) error {
	s.mu.Lock()
	written, err := fn()
	s.mu.Unlock()

	for _, key := range written {
		s.notify(ctx, key)
	}
	return err
}

func (s *Store) notify(ctx context.Context, key string) {
	if err := events.Emit(ctx, s.emitter, events.TypeStoreChanged, events.StoreChange{Key: key}); err != nil {
		s.logger.WarnContext(ctx, "store change handler failed", "key", key, "error", err)
	}
}

// getJSON decodes key into v. It reports false when the key was never written.
func (s *Store) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, NewStoreError(key, "get", "backend read failed", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, NewStoreError(key, "get", "stored document is corrupt", err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return NewStoreError(key, "set", "encode failed", err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return NewStoreError(key, "set", "backend write failed", err)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
}
