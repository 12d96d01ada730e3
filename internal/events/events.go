package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/smartmark/internal/domain"
)

// Event types
const (
	// TypeEnrichmentRequested asks the task queue to enrich a bookmark.
	TypeEnrichmentRequested = "enrichment.requested"

	// TypeBookmarkChanged reports a local mutation that should be synced.
	TypeBookmarkChanged = "bookmark.changed"

	// TypeStoreChanged reports that a persisted key was written.
	TypeStoreChanged = "store.changed"
)

// Event is an envelope for anything published on the bus.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EnrichmentRequest is the payload of TypeEnrichmentRequested.
type EnrichmentRequest struct {
	BookmarkID string `json:"bookmarkId"`
}

// ChangeKind is the kind of mutation being synced.
type ChangeKind string

// Change kinds
const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// BookmarkChange is the payload of TypeBookmarkChanged. Fields lists the
// JSON field names that changed; it is ignored for adds.
type BookmarkChange struct {
	Kind   ChangeKind       `json:"kind"`
	Item   *domain.Bookmark `json:"item"`
	Fields []string         `json:"fields,omitempty"`
}

// StoreChange is the payload of TypeStoreChanged.
type StoreChange struct {
	Key string `json:"key"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they do not understand.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// Emit builds an event and publishes it. A nil emitter is a no-op.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, payload interface{}) error {
	if emitter == nil {
		return nil
	}
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return emitter.EmitEvent(ctx, event)
}
