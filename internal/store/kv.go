package store

import (
	"context"
)

// Logical keys of the persisted layout.
const (
	KeyBookmarks       = "bookmarks"
	KeyAIConfig        = "aiConfig"
	KeySmartCategories = "smartCategories"
	KeyPreferences     = "preferences"
	KeyAuthToken       = "authToken"
)

// KV is a durable map from logical key to an opaque JSON document.
// Writes are last-writer-wins; callers needing read-modify-write atomicity
// serialize through Store.
type KV interface {
	// Get returns the value of key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value of key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes every given key in one atomic step. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend.
	Close() error
}
