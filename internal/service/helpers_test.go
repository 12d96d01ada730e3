package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/platform/extractor"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/platform/memory"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockQueue) Reset() {
	m.Called()
}

func (m *mockQueue) Status() task.Status {
	return m.Called().Get(0).(task.Status)
}

type mockFetcher struct {
	FetchFn func(ctx context.Context, url string) (extractor.Page, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (extractor.Page, error) {
	return m.FetchFn(ctx, url)
}

// eventRecorder collects events of one type.
type eventRecorder struct {
	eventType string

	mu     sync.Mutex
	events []*events.Event
}

func (r *eventRecorder) HandleEvent(_ context.Context, event *events.Event) error {
	if event.Type != r.eventType {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) changes(t *testing.T) []events.BookmarkChange {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.BookmarkChange, 0, len(r.events))
	for _, e := range r.events {
		var c events.BookmarkChange
		require.NoError(t, e.UnmarshalPayload(&c))
		out = append(out, c)
	}
	return out
}

func (r *eventRecorder) enrichmentIDs(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, e := range r.events {
		var req events.EnrichmentRequest
		require.NoError(t, e.UnmarshalPayload(&req))
		ids = append(ids, req.BookmarkID)
	}
	return ids
}

type serviceFixture struct {
	store    *store.Store
	sessions *memory.SessionStore
	queue    *mockQueue
	fetcher  *mockFetcher
	changes  *eventRecorder
	requests *eventRecorder
	service  BookmarkService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	log, _ := logger.NewTestLogger()

	emitter := events.NewInMemoryEventEmitter(log)
	changes := &eventRecorder{eventType: events.TypeBookmarkChanged}
	requests := &eventRecorder{eventType: events.TypeEnrichmentRequested}
	emitter.RegisterHandler(changes)
	emitter.RegisterHandler(requests)

	s, err := store.New(memory.NewKV(), emitter, log)
	require.NoError(t, err)

	sessions := memory.NewSessionStore(time.Hour)
	t.Cleanup(func() { _ = sessions.Close() })

	q := &mockQueue{}
	fetcher := &mockFetcher{FetchFn: func(context.Context, string) (extractor.Page, error) {
		return extractor.Page{}, extractor.ErrFetchFailed
	}}

	svc, err := NewBookmarkService(s, sessions, q, fetcher, emitter, log)
	require.NoError(t, err)

	return &serviceFixture{
		store:    s,
		sessions: sessions,
		queue:    q,
		fetcher:  fetcher,
		changes:  changes,
		requests: requests,
		service:  svc,
	}
}
