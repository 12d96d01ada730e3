package reconcile

import (
	"context"
	"fmt"

	"github.com/phrazzld/smartmark/internal/events"
)

var _ events.EventHandler = (*Reconciler)(nil)

// HandleEvent submits bookmark.changed events for sync. Other event types
// are ignored.
func (r *Reconciler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeBookmarkChanged {
		return nil
	}

	var change events.BookmarkChange
	if err := event.UnmarshalPayload(&change); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if change.Item == nil {
		return fmt.Errorf("bookmark change %s has no item", event.ID)
	}

	r.Submit(ctx, change.Kind, change.Item, change.Fields...)
	return nil
}
