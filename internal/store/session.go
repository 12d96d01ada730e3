package store

import (
	"context"
)

// SessionKeyPrefix namespaces tab bindings inside a shared backend.
const SessionKeyPrefix = "tab:"

// TabKey returns the backend key of a tab binding.
func TabKey(tabID string) string {
	return SessionKeyPrefix + tabID
}

// SessionStore holds the short-lived association between a browser tab and
// the bookmark it shows. Bindings expire on their own and are released
// explicitly when the tab closes.
type SessionStore interface {
	// Bind associates tabID with bookmarkID, replacing any earlier binding.
	Bind(ctx context.Context, tabID, bookmarkID string) error

	// Lookup returns the bookmark bound to tabID, or ErrSessionNotFound.
	Lookup(ctx context.Context, tabID string) (string, error)

	// Release removes the binding of tabID. Releasing an unbound tab is not an error.
	Release(ctx context.Context, tabID string) error

	// Close releases the backend.
	Close() error
}
