package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := discardLogger()

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewEvent("test-event", map[string]string{"key": "value"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent("test-event", map[string]string{"key": "value"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{
			HandlerError: errors.New("handler error"),
		}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent("test-event", map[string]string{"key": "value"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")

		// The failure does not stop delivery to later handlers
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})
}

func TestInMemoryEventEmitterSubscribe(t *testing.T) {
	emitter := NewInMemoryEventEmitter(discardLogger())

	ch, unsubscribe := emitter.Subscribe(1)

	first, err := NewEvent(TypeStoreChanged, StoreChange{Key: "bookmarks"})
	require.NoError(t, err)
	second, err := NewEvent(TypeStoreChanged, StoreChange{Key: "aiConfig"})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), first))
	// Buffer of one is full; the second event is dropped rather than blocking
	require.NoError(t, emitter.EmitEvent(context.Background(), second))

	got := <-ch
	assert.Equal(t, first.ID, got.ID)

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")

	// Emitting after unsubscribe must not panic on the closed channel
	assert.NoError(t, emitter.EmitEvent(context.Background(), first))
}
