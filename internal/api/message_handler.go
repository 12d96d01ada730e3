package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/smartmark/internal/api/shared"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/service"
)

// actionFunc decodes one action's payload from the raw message and runs it.
type actionFunc func(ctx context.Context, payload []byte) (interface{}, error)

// MessageHandler serves POST /api/messages, the single entry point the
// extension's popup, options page and content scripts talk to. Each message
// is a JSON object whose "action" selects the operation; the remaining keys
// are that action's payload.
type MessageHandler struct {
	bookmarks service.BookmarkService
	assistant service.AssistantService
	settings  service.SettingsService
	actions   map[string]actionFunc
	logger    *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(
	bookmarks service.BookmarkService,
	assistant service.AssistantService,
	settings service.SettingsService,
	logger *slog.Logger,
) (*MessageHandler, error) {
	switch {
	case bookmarks == nil:
		return nil, errors.New("bookmark service cannot be nil")
	case assistant == nil:
		return nil, errors.New("assistant service cannot be nil")
	case settings == nil:
		return nil, errors.New("settings service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &MessageHandler{
		bookmarks: bookmarks,
		assistant: assistant,
		settings:  settings,
		logger:    logger.With("component", "message_handler"),
	}
	h.actions = map[string]actionFunc{
		ActionAddBookmarkByURL: h.addBookmarkByURL,
		ActionAddCurrentPage:   h.addCurrentPage,
		ActionRegenerateAIData: h.regenerate,
		ActionToggleStar:       h.toggleStar,
		ActionDeleteBookmark:   h.deleteBookmark,
		ActionUpdateNotes:      h.updateNotes,
		ActionUpdateClickCount: h.updateClickCount,
		ActionImportBookmarks:  h.importBookmarks,
		ActionAskAboutBookmark: h.ask,
		ActionGenerateQuiz:     h.quiz,
		ActionGetBookmarks:     h.getBookmarks,
		ActionClearBookmarks:   h.clearBookmarks,
		ActionSaveAIConfig:     h.saveAIConfig,
		ActionGetAIConfig:      h.getAIConfig,
		ActionSavePreferences:  h.savePreferences,
		ActionGetPreferences:   h.getPreferences,
		ActionSetAuthToken:     h.setAuthToken,
		ActionTabClosed:        h.tabClosed,
		ActionGetQueueStatus:   h.queueStatus,
	}
	return h, nil
}

// Actions returns the supported action names in sorted order.
func (h *MessageHandler) Actions() []string {
	names := make([]string, 0, len(h.actions))
	for name := range h.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleMessage handles POST /api/messages requests
func (h *MessageHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	body, err := shared.ReadBody(w, r)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrMalformedMessage, err))
		return
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", ErrMalformedMessage, err))
		return
	}
	action := strings.TrimSpace(envelope.Action)
	if action == "" {
		HandleAPIError(w, r, fmt.Errorf("%w: action is required", ErrMalformedMessage))
		return
	}

	run, ok := h.actions[action]
	if !ok {
		log.Warn("unknown message action", "action", action)
		HandleAPIError(w, r, fmt.Errorf("%w: %q", ErrUnknownAction, action))
		return
	}

	result, err := run(r.Context(), body)
	if err != nil {
		log.Debug("message action failed", "action", action, "status", MapErrorToStatusCode(err))
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// decode unmarshals and validates payload into v. Validation errors pass
// through; anything else means the payload was not the expected JSON.
func decode(payload []byte, v interface{}) error {
	err := shared.DecodePayload(payload, v)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
}

func (h *MessageHandler) addBookmarkByURL(ctx context.Context, payload []byte) (interface{}, error) {
	var req AddBookmarkRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	result, err := h.bookmarks.AddByURL(ctx, req.URL, req.Title, req.ParentID)
	if err != nil {
		return nil, err
	}
	return AddBookmarkResponse(result), nil
}

func (h *MessageHandler) addCurrentPage(ctx context.Context, payload []byte) (interface{}, error) {
	var req AddCurrentPageRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	result, err := h.bookmarks.AddCurrentPage(ctx, string(req.TabID), req.URL, req.Title)
	if err != nil {
		return nil, err
	}
	return AddBookmarkResponse(result), nil
}

func (h *MessageHandler) regenerate(ctx context.Context, payload []byte) (interface{}, error) {
	var req IDRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	status, err := h.bookmarks.Regenerate(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return RegenerateResponse{Status: status}, nil
}

func (h *MessageHandler) toggleStar(ctx context.Context, payload []byte) (interface{}, error) {
	var req IDRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	starred, err := h.bookmarks.ToggleStar(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return StarResponse{Status: StatusSuccess, IsStarred: starred}, nil
}

func (h *MessageHandler) deleteBookmark(ctx context.Context, payload []byte) (interface{}, error) {
	var req IDRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	deleted, err := h.bookmarks.Delete(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return DeleteResponse{Status: StatusSuccess, Deleted: deleted}, nil
}

func (h *MessageHandler) updateNotes(ctx context.Context, payload []byte) (interface{}, error) {
	var req NotesRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := h.bookmarks.UpdateNotes(ctx, req.ID, req.Notes); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) updateClickCount(ctx context.Context, payload []byte) (interface{}, error) {
	var req ClickRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	count, err := h.bookmarks.RecordClick(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	return ClickResponse{Status: StatusSuccess, ClickCount: count}, nil
}

func (h *MessageHandler) importBookmarks(ctx context.Context, payload []byte) (interface{}, error) {
	var req ImportRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	count, err := h.bookmarks.Import(ctx, req.Tree)
	if err != nil {
		return nil, err
	}
	return ImportResponse{Status: StatusSuccess, Count: count}, nil
}

func (h *MessageHandler) ask(ctx context.Context, payload []byte) (interface{}, error) {
	var req AskRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	answer, err := h.assistant.Ask(ctx, req.Ref(), req.Question)
	if err != nil {
		return nil, err
	}
	return AnswerResponse{Status: StatusSuccess, Answer: answer}, nil
}

func (h *MessageHandler) quiz(ctx context.Context, payload []byte) (interface{}, error) {
	var req PageRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	questions, err := h.assistant.Quiz(ctx, req.Ref())
	if err != nil {
		return nil, err
	}
	return QuizResponse{Status: StatusSuccess, Quiz: questions}, nil
}

func (h *MessageHandler) getBookmarks(ctx context.Context, _ []byte) (interface{}, error) {
	items, err := h.bookmarks.List(ctx)
	if err != nil {
		return nil, err
	}
	return BookmarksResponse{Status: StatusSuccess, Bookmarks: items}, nil
}

func (h *MessageHandler) clearBookmarks(ctx context.Context, _ []byte) (interface{}, error) {
	if err := h.bookmarks.Clear(ctx); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) saveAIConfig(ctx context.Context, payload []byte) (interface{}, error) {
	var req AIConfigRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := h.settings.SaveAIConfig(ctx, req.Config); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) getAIConfig(ctx context.Context, _ []byte) (interface{}, error) {
	cfg, err := h.settings.AIConfig(ctx)
	if err != nil {
		return nil, err
	}
	return AIConfigResponse{Status: StatusSuccess, Config: cfg}, nil
}

func (h *MessageHandler) savePreferences(ctx context.Context, payload []byte) (interface{}, error) {
	var req PreferencesRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := h.settings.SavePreferences(ctx, req.Preferences); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) getPreferences(ctx context.Context, _ []byte) (interface{}, error) {
	prefs, err := h.settings.Preferences(ctx)
	if err != nil {
		return nil, err
	}
	return PreferencesResponse{Status: StatusSuccess, Preferences: prefs}, nil
}

func (h *MessageHandler) setAuthToken(ctx context.Context, payload []byte) (interface{}, error) {
	var req AuthTokenRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := h.settings.SetAuthToken(ctx, strings.TrimSpace(req.Token)); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) tabClosed(ctx context.Context, payload []byte) (interface{}, error) {
	var req TabRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if err := h.bookmarks.TabClosed(ctx, string(req.TabID)); err != nil {
		return nil, err
	}
	return StatusResponse{Status: StatusSuccess}, nil
}

func (h *MessageHandler) queueStatus(_ context.Context, _ []byte) (interface{}, error) {
	status := h.bookmarks.QueueStatus()
	return QueueStatusResponse{
		Status:     StatusSuccess,
		Pending:    status.Pending,
		InFlight:   status.InFlight,
		Generation: status.Generation,
		Draining:   status.Draining,
	}, nil
}
