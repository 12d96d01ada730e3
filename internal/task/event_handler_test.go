package task

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	ids []string
	err error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, id string) (bool, error) {
	r.ids = append(r.ids, id)
	return r.err == nil, r.err
}

func TestEnrichmentEventHandler(t *testing.T) {
	t.Parallel()
	log, _ := logger.NewTestLogger()
	ctx := context.Background()

	t.Run("enqueues requested bookmark", func(t *testing.T) {
		t.Parallel()
		q := &recordingEnqueuer{}
		h := NewEnrichmentEventHandler(q, log)

		event, err := events.NewEvent(events.TypeEnrichmentRequested, events.EnrichmentRequest{BookmarkID: "b-1"})
		require.NoError(t, err)

		require.NoError(t, h.HandleEvent(ctx, event))
		assert.Equal(t, []string{"b-1"}, q.ids)
	})

	t.Run("ignores other events", func(t *testing.T) {
		t.Parallel()
		q := &recordingEnqueuer{}
		h := NewEnrichmentEventHandler(q, log)

		event, err := events.NewEvent(events.TypeStoreChanged, events.StoreChange{Key: "bookmarks"})
		require.NoError(t, err)

		require.NoError(t, h.HandleEvent(ctx, event))
		assert.Empty(t, q.ids)
	})

	t.Run("rejects payload without id", func(t *testing.T) {
		t.Parallel()
		q := &recordingEnqueuer{}
		h := NewEnrichmentEventHandler(q, log)

		event, err := events.NewEvent(events.TypeEnrichmentRequested, events.EnrichmentRequest{})
		require.NoError(t, err)

		assert.Error(t, h.HandleEvent(ctx, event))
		assert.Empty(t, q.ids)
	})

	t.Run("propagates enqueue errors", func(t *testing.T) {
		t.Parallel()
		q := &recordingEnqueuer{err: ErrQueueStopped}
		h := NewEnrichmentEventHandler(q, log)

		event, err := events.NewEvent(events.TypeEnrichmentRequested, events.EnrichmentRequest{BookmarkID: "b-2"})
		require.NoError(t, err)

		err = h.HandleEvent(ctx, event)
		assert.True(t, errors.Is(err, ErrQueueStopped))
	})
}
