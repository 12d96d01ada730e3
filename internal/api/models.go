package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/service"
)

// Message actions accepted by POST /api/messages.
const (
	ActionAddBookmarkByURL = "addBookmarkByUrl"
	ActionAddCurrentPage   = "addCurrentPage"
	ActionRegenerateAIData = "regenerateAiData"
	ActionToggleStar       = "toggleStar"
	ActionDeleteBookmark   = "deleteBookmark"
	ActionUpdateNotes      = "updateBookmarkNotes"
	ActionUpdateClickCount = "updateBookmarkClickCount"
	ActionImportBookmarks  = "importBrowserBookmarks"
	ActionAskAboutBookmark = "askAboutBookmarkInTab"
	ActionGenerateQuiz     = "generateQuizInTab"
	ActionGetBookmarks     = "getBookmarks"
	ActionClearBookmarks   = "clearBookmarks"
	ActionSaveAIConfig     = "saveAiConfig"
	ActionGetAIConfig      = "getAiConfig"
	ActionSavePreferences  = "savePreferences"
	ActionGetPreferences   = "getPreferences"
	ActionSetAuthToken     = "setAuthToken"
	ActionTabClosed        = "tabClosed"
	ActionGetQueueStatus   = "getQueueStatus"
)

// StatusSuccess is the status of every successful response without a more
// specific outcome.
const StatusSuccess = "success"

// Envelope is the part of every message the dispatcher reads first.
type Envelope struct {
	Action string `json:"action"`
}

// TabID is a browser tab identifier. Browsers send numbers; strings are
// accepted too so other clients can use opaque IDs.
type TabID string

// UnmarshalJSON accepts a JSON number or string.
func (t *TabID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TabID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("tabId must be a number or string: %w", err)
	}
	*t = TabID(n.String())
	return nil
}

// AddBookmarkRequest is the payload of addBookmarkByUrl.
type AddBookmarkRequest struct {
	URL      string `json:"url" validate:"required"`
	Title    string `json:"title"`
	ParentID string `json:"parentId"`
}

// AddCurrentPageRequest is the payload of addCurrentPage.
type AddCurrentPageRequest struct {
	TabID TabID  `json:"tabId" validate:"required"`
	URL   string `json:"url" validate:"required"`
	Title string `json:"title"`
}

// IDRequest is the payload of actions addressing one item.
type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

// NotesRequest is the payload of updateBookmarkNotes. Empty notes clear them.
type NotesRequest struct {
	ID    string `json:"id" validate:"required"`
	Notes string `json:"notes" validate:"max=20000"`
}

// ClickRequest is the payload of updateBookmarkClickCount.
type ClickRequest struct {
	URL string `json:"url" validate:"required"`
}

// ImportRequest is the payload of importBrowserBookmarks: the browser's
// bookmark tree, usually a single untitled root.
type ImportRequest struct {
	Tree []service.BrowserNode `json:"tree" validate:"required"`
}

// PageRequest names a bookmark by ID or by the tab showing it.
type PageRequest struct {
	ID    string `json:"id" validate:"required_without=TabID"`
	TabID TabID  `json:"tabId"`
}

// Ref converts the request to a service.PageRef.
func (r PageRequest) Ref() service.PageRef {
	return service.PageRef{ID: r.ID, TabID: string(r.TabID)}
}

// AskRequest is the payload of askAboutBookmarkInTab.
type AskRequest struct {
	PageRequest
	Question string `json:"question" validate:"required,max=2000"`
}

// AIConfigRequest is the payload of saveAiConfig.
type AIConfigRequest struct {
	Config domain.AIConfig `json:"config"`
}

// PreferencesRequest is the payload of savePreferences.
type PreferencesRequest struct {
	Preferences domain.Preferences `json:"preferences"`
}

// AuthTokenRequest is the payload of setAuthToken. An empty token signs out.
type AuthTokenRequest struct {
	Token string `json:"token"`
}

// TabRequest is the payload of tabClosed.
type TabRequest struct {
	TabID TabID `json:"tabId" validate:"required"`
}

// StatusResponse is returned by actions with nothing else to report.
type StatusResponse struct {
	Status string `json:"status"`
}

// AddBookmarkResponse is returned by addBookmarkByUrl and addCurrentPage.
type AddBookmarkResponse struct {
	Status   service.AddStatus `json:"status"`
	Bookmark *domain.Bookmark  `json:"bookmark"`
	Queued   bool              `json:"queued"`
}

// RegenerateResponse is returned by regenerateAiData.
type RegenerateResponse struct {
	Status service.RegenerateStatus `json:"status"`
}

// StarResponse is returned by toggleStar.
type StarResponse struct {
	Status    string `json:"status"`
	IsStarred bool   `json:"isStarred"`
}

// DeleteResponse is returned by deleteBookmark.
type DeleteResponse struct {
	Status  string `json:"status"`
	Deleted int    `json:"deleted"`
}

// ClickResponse is returned by updateBookmarkClickCount.
type ClickResponse struct {
	Status     string `json:"status"`
	ClickCount int    `json:"clickCount"`
}

// ImportResponse is returned by importBrowserBookmarks.
type ImportResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// AnswerResponse is returned by askAboutBookmarkInTab.
type AnswerResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

// QuizResponse is returned by generateQuizInTab.
type QuizResponse struct {
	Status string                `json:"status"`
	Quiz   []domain.QuizQuestion `json:"quiz"`
}

// BookmarksResponse is returned by getBookmarks.
type BookmarksResponse struct {
	Status    string             `json:"status"`
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
}

// AIConfigResponse is returned by getAiConfig. The API key is masked.
type AIConfigResponse struct {
	Status string          `json:"status"`
	Config domain.AIConfig `json:"config"`
}

// PreferencesResponse is returned by getPreferences.
type PreferencesResponse struct {
	Status      string             `json:"status"`
	Preferences domain.Preferences `json:"preferences"`
}

// QueueStatusResponse is returned by getQueueStatus.
type QueueStatusResponse struct {
	Status     string   `json:"status"`
	Pending    []string `json:"pending"`
	InFlight   []string `json:"inFlight"`
	Generation uint64   `json:"generation"`
	Draining   bool     `json:"draining"`
}
