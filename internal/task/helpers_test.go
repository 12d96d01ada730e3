package task

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/platform/memory"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

func newTestStore(t *testing.T) (*store.Store, *events.InMemoryEventEmitter) {
	t.Helper()
	log, _ := logger.NewTestLogger()
	emitter := events.NewInMemoryEventEmitter(log)
	s, err := store.New(memory.NewKV(), emitter, log)
	require.NoError(t, err)
	return s, emitter
}

func addBookmark(t *testing.T, s *store.Store, url, title string) *domain.Bookmark {
	t.Helper()
	b, err := domain.NewBookmark(url, title, "")
	require.NoError(t, err)
	require.NoError(t, s.AddBookmark(context.Background(), b))
	return b
}

func setStatus(t *testing.T, s *store.Store, id string, status domain.AIStatus) {
	t.Helper()
	_, err := s.UpdateBookmark(context.Background(), id, func(b *domain.Bookmark) error {
		return b.SetAIStatus(status, "")
	})
	require.NoError(t, err)
}

func statusOf(t *testing.T, s *store.Store, id string) domain.AIStatus {
	t.Helper()
	b, err := s.GetBookmark(context.Background(), id)
	require.NoError(t, err)
	return b.AIStatus
}

// completingProcessor marks each job completed after running hook.
func completingProcessor(s *store.Store, hook func(id string)) Processor {
	return ProcessorFunc(func(ctx context.Context, id string) {
		if hook != nil {
			hook(id)
		}
		_, _ = s.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
			return b.SetAIStatus(domain.AIStatusCompleted, "")
		})
	})
}

func newTestQueue(t *testing.T, s *store.Store, p Processor, cfg QueueConfig) *Queue {
	t.Helper()
	log, _ := logger.NewTestLogger()
	q, err := NewQueue(s, p, cfg, log)
	require.NoError(t, err)
	t.Cleanup(q.Stop)
	return q
}

func fastConfig() QueueConfig {
	return QueueConfig{ConcurrentLimit: 3, Cooldown: 5 * time.Millisecond}
}
