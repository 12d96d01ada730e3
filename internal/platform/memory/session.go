package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/store"
)

type binding struct {
	bookmarkID string
	expiresAt  time.Time
}

// SessionStore is an in-memory store.SessionStore. Expired bindings are
// dropped lazily on lookup and on every bind.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	bindings map[string]binding
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore whose bindings live for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		bindings: make(map[string]binding),
	}
}

// Bind associates tabID with bookmarkID.
func (s *SessionStore) Bind(ctx context.Context, tabID, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, b := range s.bindings {
		if now.After(b.expiresAt) {
			delete(s.bindings, id)
		}
	}
	s.bindings[tabID] = binding{bookmarkID: bookmarkID, expiresAt: now.Add(s.ttl)}
	return nil
}

// Lookup returns the bookmark bound to tabID.
func (s *SessionStore) Lookup(ctx context.Context, tabID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bindings[tabID]
	if !ok {
		return "", fmt.Errorf("%w: tab %s", store.ErrSessionNotFound, tabID)
	}
	if s.now().After(b.expiresAt) {
		delete(s.bindings, tabID)
		return "", fmt.Errorf("%w: tab %s expired", store.ErrSessionNotFound, tabID)
	}
	return b.bookmarkID, nil
}

// Release removes the binding of tabID.
func (s *SessionStore) Release(ctx context.Context, tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, tabID)
	return nil
}

// Len returns the number of live or not yet collected bindings.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

// Close is a no-op.
func (s *SessionStore) Close() error {
	return nil
}
