package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/api/shared"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/platform/logger"
)

const (
	defaultHeartbeat = 15 * time.Second
	subscriberBuffer = 64
)

// Subscriber hands out event streams.
type Subscriber interface {
	Subscribe(buffer int) (<-chan *events.Event, func())
}

// ChangesHandler streams store and bookmark change events as server-sent
// events so open extension pages can refresh without polling.
type ChangesHandler struct {
	subscriber Subscriber
	heartbeat  time.Duration
	logger     *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewChangesHandler creates a ChangesHandler. A non-positive heartbeat
// selects the default interval.
func NewChangesHandler(subscriber Subscriber, heartbeat time.Duration, logger *slog.Logger) *ChangesHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangesHandler{
		subscriber: subscriber,
		heartbeat:  heartbeat,
		logger:     logger.With("component", "changes_handler"),
		done:       make(chan struct{}),
	}
}

// Close ends every open stream. Streams never go idle, so the server calls
// this when shutdown begins.
func (h *ChangesHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// streamed reports whether clients care about an event type. Enrichment
// requests are internal plumbing.
func streamed(eventType string) bool {
	return eventType == events.TypeBookmarkChanged || eventType == events.TypeStoreChanged
}

// StreamChanges handles GET /api/changes requests
func (h *ChangesHandler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	ch, unsubscribe := h.subscriber.Subscribe(subscriberBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	log.Debug("change stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("change stream closed by client")
			return

		case <-h.done:
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case event, open := <-ch:
			if !open {
				return
			}
			if !streamed(event.Type) {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to encode change event", "error", err, "event_type", event.Type)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
