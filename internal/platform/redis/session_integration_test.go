//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/ciutil"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreAgainstRedis(t *testing.T) {
	addr := ciutil.TestRedisAddr(nil)
	if addr == "" {
		if ciutil.IsCI() {
			t.Fatalf("%s must be set in CI", ciutil.EnvTestRedisAddr)
		}
		t.Skipf("%s not set", ciutil.EnvTestRedisAddr)
	}

	ctx := context.Background()
	client, err := NewClient(ctx, Options{Addr: addr})
	require.NoError(t, err)

	s := NewSessionStore(client, time.Second)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Bind(ctx, "it-tab", "bm-1"))
	id, err := s.Lookup(ctx, "it-tab")
	require.NoError(t, err)
	assert.Equal(t, "bm-1", id)

	ttl, err := client.TTL(ctx, store.TabKey("it-tab")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Release(ctx, "it-tab"))
	_, err = s.Lookup(ctx, "it-tab")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
