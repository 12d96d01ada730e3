package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/smartmark/internal/store"
)

// KV is an in-memory store.KV.
type KV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ store.KV = (*KV)(nil)

// NewKV creates an empty KV.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns a copy of the value of key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return nil, store.ErrClosed
	}
	value, ok := k.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return store.ErrClosed
	}
	k.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes keys.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return store.ErrClosed
	}
	for _, key := range keys {
		delete(k.data, key)
	}
	return nil
}

// Close makes every later call fail with store.ErrClosed.
func (k *KV) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return nil
}
