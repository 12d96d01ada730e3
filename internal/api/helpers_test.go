package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/service"
	"github.com/phrazzld/smartmark/internal/task"
	"github.com/stretchr/testify/require"
)

// MockBookmarkService is a function-field implementation of
// service.BookmarkService. Unset functions return zero values.
type MockBookmarkService struct {
	AddByURLFn       func(ctx context.Context, url, title, parentID string) (service.AddResult, error)
	AddCurrentPageFn func(ctx context.Context, tabID, url, title string) (service.AddResult, error)
	RegenerateFn     func(ctx context.Context, id string) (service.RegenerateStatus, error)
	ToggleStarFn     func(ctx context.Context, id string) (bool, error)
	DeleteFn         func(ctx context.Context, id string) (int, error)
	UpdateNotesFn    func(ctx context.Context, id, notes string) error
	RecordClickFn    func(ctx context.Context, url string) (int, error)
	ImportFn         func(ctx context.Context, nodes []service.BrowserNode) (int, error)
	ListFn           func(ctx context.Context) ([]*domain.Bookmark, error)
	ClearFn          func(ctx context.Context) error
	TabClosedFn      func(ctx context.Context, tabID string) error
	QueueStatusFn    func() task.Status
}

var _ service.BookmarkService = (*MockBookmarkService)(nil)

func (m *MockBookmarkService) AddByURL(ctx context.Context, url, title, parentID string) (service.AddResult, error) {
	if m.AddByURLFn != nil {
		return m.AddByURLFn(ctx, url, title, parentID)
	}
	return service.AddResult{}, nil
}

func (m *MockBookmarkService) AddCurrentPage(ctx context.Context, tabID, url, title string) (service.AddResult, error) {
	if m.AddCurrentPageFn != nil {
		return m.AddCurrentPageFn(ctx, tabID, url, title)
	}
	return service.AddResult{}, nil
}

func (m *MockBookmarkService) Regenerate(ctx context.Context, id string) (service.RegenerateStatus, error) {
	if m.RegenerateFn != nil {
		return m.RegenerateFn(ctx, id)
	}
	return service.RegenerateQueued, nil
}

func (m *MockBookmarkService) ToggleStar(ctx context.Context, id string) (bool, error) {
	if m.ToggleStarFn != nil {
		return m.ToggleStarFn(ctx, id)
	}
	return false, nil
}

func (m *MockBookmarkService) Delete(ctx context.Context, id string) (int, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return 0, nil
}

func (m *MockBookmarkService) UpdateNotes(ctx context.Context, id, notes string) error {
	if m.UpdateNotesFn != nil {
		return m.UpdateNotesFn(ctx, id, notes)
	}
	return nil
}

func (m *MockBookmarkService) RecordClick(ctx context.Context, url string) (int, error) {
	if m.RecordClickFn != nil {
		return m.RecordClickFn(ctx, url)
	}
	return 0, nil
}

func (m *MockBookmarkService) Import(ctx context.Context, nodes []service.BrowserNode) (int, error) {
	if m.ImportFn != nil {
		return m.ImportFn(ctx, nodes)
	}
	return 0, nil
}

func (m *MockBookmarkService) List(ctx context.Context) ([]*domain.Bookmark, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return []*domain.Bookmark{}, nil
}

func (m *MockBookmarkService) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}

func (m *MockBookmarkService) TabClosed(ctx context.Context, tabID string) error {
	if m.TabClosedFn != nil {
		return m.TabClosedFn(ctx, tabID)
	}
	return nil
}

func (m *MockBookmarkService) QueueStatus() task.Status {
	if m.QueueStatusFn != nil {
		return m.QueueStatusFn()
	}
	return task.Status{}
}

// MockAssistantService is a function-field implementation of
// service.AssistantService.
type MockAssistantService struct {
	AskFn  func(ctx context.Context, ref service.PageRef, question string) (string, error)
	QuizFn func(ctx context.Context, ref service.PageRef) ([]domain.QuizQuestion, error)
}

var _ service.AssistantService = (*MockAssistantService)(nil)

func (m *MockAssistantService) Ask(ctx context.Context, ref service.PageRef, question string) (string, error) {
	if m.AskFn != nil {
		return m.AskFn(ctx, ref, question)
	}
	return "", nil
}

func (m *MockAssistantService) Quiz(ctx context.Context, ref service.PageRef) ([]domain.QuizQuestion, error) {
	if m.QuizFn != nil {
		return m.QuizFn(ctx, ref)
	}
	return []domain.QuizQuestion{}, nil
}

// MockSettingsService is a function-field implementation of
// service.SettingsService.
type MockSettingsService struct {
	SaveAIConfigFn    func(ctx context.Context, cfg domain.AIConfig) error
	AIConfigFn        func(ctx context.Context) (domain.AIConfig, error)
	SavePreferencesFn func(ctx context.Context, prefs domain.Preferences) error
	PreferencesFn     func(ctx context.Context) (domain.Preferences, error)
	SetAuthTokenFn    func(ctx context.Context, token string) error
}

var _ service.SettingsService = (*MockSettingsService)(nil)

func (m *MockSettingsService) SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	if m.SaveAIConfigFn != nil {
		return m.SaveAIConfigFn(ctx, cfg)
	}
	return nil
}

func (m *MockSettingsService) AIConfig(ctx context.Context) (domain.AIConfig, error) {
	if m.AIConfigFn != nil {
		return m.AIConfigFn(ctx)
	}
	return domain.AIConfig{}, nil
}

func (m *MockSettingsService) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	if m.SavePreferencesFn != nil {
		return m.SavePreferencesFn(ctx, prefs)
	}
	return nil
}

func (m *MockSettingsService) Preferences(ctx context.Context) (domain.Preferences, error) {
	if m.PreferencesFn != nil {
		return m.PreferencesFn(ctx)
	}
	return domain.DefaultPreferences(), nil
}

func (m *MockSettingsService) SetAuthToken(ctx context.Context, token string) error {
	if m.SetAuthTokenFn != nil {
		return m.SetAuthTokenFn(ctx, token)
	}
	return nil
}

type handlerFixture struct {
	bookmarks *MockBookmarkService
	assistant *MockAssistantService
	settings  *MockSettingsService
	logs      *logger.TestLogBuffer
	router    http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	log, buf := logger.NewTestLogger()
	f := &handlerFixture{
		bookmarks: &MockBookmarkService{},
		assistant: &MockAssistantService{},
		settings:  &MockSettingsService{},
		logs:      buf,
	}

	messages, err := NewMessageHandler(f.bookmarks, f.assistant, f.settings, log)
	require.NoError(t, err)
	f.router = NewRouter(RouterConfig{Messages: messages, Logger: log})
	return f
}

// send posts a message and decodes the JSON response into a map.
func (f *handlerFixture) send(t *testing.T, message interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body []byte
	switch m := message.(type) {
	case string:
		body = []byte(m)
	default:
		var err error
		body, err = json.Marshal(m)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	return w.Code, decoded
}

type msg map[string]interface{}
