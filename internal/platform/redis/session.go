package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/smartmark/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore keeps tab bindings as Redis strings with a TTL.
type SessionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore whose bindings live for ttl.
func NewSessionStore(client goredis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Bind associates tabID with bookmarkID and resets the TTL.
func (s *SessionStore) Bind(ctx context.Context, tabID, bookmarkID string) error {
	if err := s.client.Set(ctx, store.TabKey(tabID), bookmarkID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to bind tab %s: %w", tabID, err)
	}
	return nil
}

// Lookup returns the bookmark bound to tabID.
func (s *SessionStore) Lookup(ctx context.Context, tabID string) (string, error) {
	id, err := s.client.Get(ctx, store.TabKey(tabID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%w: tab %s", store.ErrSessionNotFound, tabID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up tab %s: %w", tabID, err)
	}
	return id, nil
}

// Release removes the binding of tabID.
func (s *SessionStore) Release(ctx context.Context, tabID string) error {
	if err := s.client.Del(ctx, store.TabKey(tabID)).Err(); err != nil {
		return fmt.Errorf("failed to release tab %s: %w", tabID, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
