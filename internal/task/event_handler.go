package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/smartmark/internal/events"
)

// Enqueuer admits bookmarks for enrichment.
type Enqueuer interface {
	Enqueue(ctx context.Context, id string) (bool, error)
}

// EnrichmentEventHandler enqueues the bookmark named by each
// enrichment.requested event.
type EnrichmentEventHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

var _ events.EventHandler = (*EnrichmentEventHandler)(nil)

// NewEnrichmentEventHandler creates an EnrichmentEventHandler.
func NewEnrichmentEventHandler(queue Enqueuer, logger *slog.Logger) *EnrichmentEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentEventHandler{
		queue:  queue,
		logger: logger.With("component", "enrichment_event_handler"),
	}
}

// HandleEvent enqueues the requested bookmark. Other event types are ignored.
func (h *EnrichmentEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeEnrichmentRequested {
		return nil
	}

	var payload events.EnrichmentRequest
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.BookmarkID == "" {
		return fmt.Errorf("enrichment request %s has no bookmark id", event.ID)
	}

	admitted, err := h.queue.Enqueue(ctx, payload.BookmarkID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue bookmark",
			"error", err,
			"bookmark_id", payload.BookmarkID,
			"event_id", event.ID,
		)
		return fmt.Errorf("failed to enqueue bookmark: %w", err)
	}

	h.logger.DebugContext(ctx, "enrichment request handled",
		"bookmark_id", payload.BookmarkID,
		"admitted", admitted,
		"event_id", event.ID,
	)
	return nil
}
