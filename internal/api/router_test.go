package api

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/api/middleware"
	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := NewRouter(RouterConfig{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	})

	t.Run("store unavailable", func(t *testing.T) {
		router := NewRouter(RouterConfig{Health: func() error { return errors.New("store closed") }})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRouterRequiresTokenWhenConfigured(t *testing.T) {
	log, _ := logger.NewTestLogger()
	messages, err := NewMessageHandler(&MockBookmarkService{}, &MockAssistantService{}, &MockSettingsService{}, log)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Messages: messages,
		Auth:     middleware.NewTokenAuth("local-secret"),
		Logger:   log,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"action":"getBookmarks"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"action":"getBookmarks"}`))
	req.Header.Set("Authorization", "Bearer local-secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open for local process supervisors.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStreamChanges(t *testing.T) {
	log, _ := logger.NewTestLogger()
	emitter := events.NewInMemoryEventEmitter(log)
	router := NewRouter(RouterConfig{
		Changes: NewChangesHandler(emitter, time.Hour, log),
		Logger:  log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/changes", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	// The subscription exists once the greeting is flushed.
	item := &domain.Bookmark{ID: "b1", Type: domain.ItemTypeBookmark, URL: "https://go.dev", Title: "Go"}
	require.NoError(t, events.Emit(ctx, emitter, events.TypeEnrichmentRequested, events.EnrichmentRequest{BookmarkID: "b1"}))
	require.NoError(t, events.Emit(ctx, emitter, events.TypeBookmarkChanged, events.BookmarkChange{
		Kind:   events.ChangeUpdate,
		Item:   item,
		Fields: []string{"isStarred"},
	}))

	var frame []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" && len(frame) > 0 {
			break
		}
		if line != "" {
			frame = append(frame, line)
		}
	}

	require.Len(t, frame, 3)
	assert.True(t, strings.HasPrefix(frame[0], "id: "))
	assert.Equal(t, "event: bookmark.changed", frame[1])
	assert.Contains(t, frame[2], `"isStarred"`)
	assert.Contains(t, frame[2], `"kind":"update"`)
}

func TestStreamChangesEndsOnClose(t *testing.T) {
	log, _ := logger.NewTestLogger()
	emitter := events.NewInMemoryEventEmitter(log)
	changes := NewChangesHandler(emitter, time.Hour, log)
	srv := httptest.NewServer(NewRouter(RouterConfig{Changes: changes, Logger: log}))
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/api/changes")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	changes.Close()
	changes.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(reader)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not end after Close")
	}
}
