package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := EnrichmentRequest{BookmarkID: "b-1"}

	event, err := NewEvent(TypeEnrichmentRequested, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeEnrichmentRequested, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded EnrichmentRequest
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEventUnmarshalablePayload(t *testing.T) {
	_, err := NewEvent(TypeStoreChanged, make(chan int))
	assert.Error(t, err)
}

func TestBookmarkChangePayload(t *testing.T) {
	serverID := "srv-9"
	change := BookmarkChange{
		Kind:   ChangeUpdate,
		Item:   &domain.Bookmark{ID: "b-1", ServerID: &serverID, Type: domain.ItemTypeBookmark, URL: "https://a"},
		Fields: []string{"isStarred"},
	}

	event, err := NewEvent(TypeBookmarkChanged, change)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(event.Payload, &raw))
	assert.JSONEq(t, `"update"`, string(raw["kind"]))
	assert.JSONEq(t, `["isStarred"]`, string(raw["fields"]))

	var decoded BookmarkChange
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "srv-9", *decoded.Item.ServerID)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEmitHelper(t *testing.T) {
	t.Run("nil emitter is a no-op", func(t *testing.T) {
		assert.NoError(t, Emit(context.Background(), nil, TypeStoreChanged, StoreChange{Key: "bookmarks"}))
	})

	t.Run("propagates handler error", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discardLogger())
		handler := &MockEventHandler{HandlerError: errors.New("nope")}
		emitter.RegisterHandler(handler)

		err := Emit(context.Background(), emitter, TypeStoreChanged, StoreChange{Key: "bookmarks"})
		assert.EqualError(t, err, "nope")
		assert.Equal(t, TypeStoreChanged, handler.LastEvent.Type)
	})
}
