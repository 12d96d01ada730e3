package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
)

// AddStatus reports the outcome of saving a page.
type AddStatus string

// Add outcomes
const (
	AddSuccess AddStatus = "success"
	AddExists  AddStatus = "exists"
)

// AddResult is returned by AddByURL and AddCurrentPage.
type AddResult struct {
	Status   AddStatus        `json:"status"`
	Bookmark *domain.Bookmark `json:"bookmark"`
	// Queued is true when the bookmark was admitted for enrichment.
	Queued bool `json:"queued"`
}

// RegenerateStatus reports whether a regenerate request was admitted.
type RegenerateStatus string

// Regenerate outcomes
const (
	RegenerateQueued        RegenerateStatus = "queued"
	RegenerateAlreadyQueued RegenerateStatus = "already_queued"
)

// BookmarkService handles bookmark actions.
type BookmarkService interface {
	// AddByURL saves url, or returns the existing bookmark with AddExists.
	// An empty title is filled from the page when it can be fetched.
	AddByURL(ctx context.Context, rawURL, title, parentID string) (AddResult, error)

	// AddCurrentPage saves the page shown in a tab and binds the tab to it.
	AddCurrentPage(ctx context.Context, tabID, rawURL, title string) (AddResult, error)

	// Regenerate re-enqueues a bookmark for enrichment.
	Regenerate(ctx context.Context, id string) (RegenerateStatus, error)

	// ToggleStar flips the starred flag and returns the new value.
	ToggleStar(ctx context.Context, id string) (bool, error)

	// Delete removes the item and its descendants and returns how many
	// items were removed.
	Delete(ctx context.Context, id string) (int, error)

	// UpdateNotes replaces the notes of a bookmark.
	UpdateNotes(ctx context.Context, id, notes string) error

	// RecordClick increments the click count of the bookmark saved for url.
	RecordClick(ctx context.Context, rawURL string) (int, error)

	// Import saves a browser bookmark tree and returns the number of new
	// bookmarks.
	Import(ctx context.Context, nodes []BrowserNode) (int, error)

	// List returns every bookmark and folder.
	List(ctx context.Context) ([]*domain.Bookmark, error)

	// Clear removes the collection and drops queued enrichment.
	Clear(ctx context.Context) error

	// TabClosed releases the tab's bookmark binding.
	TabClosed(ctx context.Context, tabID string) error

	// QueueStatus returns a snapshot of the enrichment queue.
	QueueStatus() task.Status
}

type bookmarkServiceImpl struct {
	store    BookmarkStore
	sessions store.SessionStore
	queue    Queue
	fetcher  PageFetcher
	emitter  events.EventEmitter
	logger   *slog.Logger
}

var _ BookmarkService = (*bookmarkServiceImpl)(nil)

// NewBookmarkService creates a BookmarkService. fetcher may be nil, in
// which case untitled bookmarks keep their URL as title.
func NewBookmarkService(
	bookmarks BookmarkStore,
	sessions store.SessionStore,
	queue Queue,
	fetcher PageFetcher,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (BookmarkService, error) {
	switch {
	case bookmarks == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "bookmark store cannot be nil"}
	case sessions == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "session store cannot be nil"}
	case queue == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "queue cannot be nil"}
	case emitter == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &bookmarkServiceImpl{
		store:    bookmarks,
		sessions: sessions,
		queue:    queue,
		fetcher:  fetcher,
		emitter:  emitter,
		logger:   logger.With("component", "bookmark_service"),
	}, nil
}

// normalizeURL accepts absolute http and https URLs.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return raw, nil
}

func (s *bookmarkServiceImpl) AddByURL(ctx context.Context, rawURL, title, parentID string) (AddResult, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return AddResult{}, err
	}

	if existing, err := s.store.FindBookmarkByURL(ctx, target); err == nil {
		return AddResult{Status: AddExists, Bookmark: existing}, nil
	} else if !store.IsNotFoundError(err) {
		return AddResult{}, NewServiceError("add_bookmark", "failed to look up url", err)
	}

	if strings.TrimSpace(title) == "" {
		title = s.pageTitle(ctx, target)
	}

	b, err := domain.NewBookmark(target, title, parentID)
	if err != nil {
		return AddResult{}, NewServiceError("add_bookmark", "invalid bookmark", err)
	}

	if err := s.store.AddBookmark(ctx, b); err != nil {
		if errors.Is(err, store.ErrURLExists) {
			existing, findErr := s.store.FindBookmarkByURL(ctx, target)
			if findErr == nil {
				return AddResult{Status: AddExists, Bookmark: existing}, nil
			}
		}
		s.logger.ErrorContext(ctx, "failed to save bookmark", "error", err, "url", target)
		return AddResult{}, NewServiceError("add_bookmark", "failed to save bookmark", err)
	}

	s.logger.InfoContext(ctx, "bookmark saved", "bookmark_id", b.ID, "url", target)
	s.publishChange(ctx, events.ChangeAdd, b)

	queued, err := s.queue.Enqueue(ctx, b.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue new bookmark", "error", err, "bookmark_id", b.ID)
	}
	return AddResult{Status: AddSuccess, Bookmark: b, Queued: queued}, nil
}

func (s *bookmarkServiceImpl) AddCurrentPage(ctx context.Context, tabID, rawURL, title string) (AddResult, error) {
	result, err := s.AddByURL(ctx, rawURL, title, "")
	if err != nil {
		return AddResult{}, err
	}
	if tabID != "" {
		if err := s.sessions.Bind(ctx, tabID, result.Bookmark.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to bind tab", "error", err, "tab_id", tabID)
		}
	}
	return result, nil
}

// pageTitle fetches the page title, returning "" on any failure.
func (s *bookmarkServiceImpl) pageTitle(ctx context.Context, target string) string {
	if s.fetcher == nil {
		return ""
	}
	page, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		s.logger.DebugContext(ctx, "could not fetch page title", "url", target, "error", err)
		return ""
	}
	return page.Title
}

func (s *bookmarkServiceImpl) Regenerate(ctx context.Context, id string) (RegenerateStatus, error) {
	admitted, err := s.queue.Enqueue(ctx, id)
	if err != nil {
		return "", NewServiceError("regenerate", "failed to enqueue bookmark", err)
	}
	if !admitted {
		return RegenerateAlreadyQueued, nil
	}
	return RegenerateQueued, nil
}

func (s *bookmarkServiceImpl) ToggleStar(ctx context.Context, id string) (bool, error) {
	updated, err := s.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		b.IsStarred = !b.IsStarred
		b.Touch()
		return nil
	})
	if err != nil {
		return false, NewServiceError("toggle_star", "failed to update bookmark", err)
	}
	s.publishChange(ctx, events.ChangeUpdate, updated, "isStarred")
	return updated.IsStarred, nil
}

func (s *bookmarkServiceImpl) Delete(ctx context.Context, id string) (int, error) {
	removed, err := s.store.DeleteBookmarkTree(ctx, id)
	if err != nil {
		return 0, NewServiceError("delete_bookmark", "failed to delete bookmark", err)
	}

	s.logger.InfoContext(ctx, "bookmark tree deleted", "bookmark_id", id, "count", len(removed))
	for _, item := range removed {
		s.publishChange(ctx, events.ChangeDelete, item)
	}
	return len(removed), nil
}

func (s *bookmarkServiceImpl) UpdateNotes(ctx context.Context, id, notes string) error {
	updated, err := s.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		b.Notes = notes
		b.Touch()
		return nil
	})
	if err != nil {
		return NewServiceError("update_notes", "failed to update bookmark", err)
	}
	s.publishChange(ctx, events.ChangeUpdate, updated, "notes")
	return nil
}

func (s *bookmarkServiceImpl) RecordClick(ctx context.Context, rawURL string) (int, error) {
	existing, err := s.store.FindBookmarkByURL(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		return 0, NewServiceError("record_click", "failed to look up url", err)
	}

	updated, err := s.store.UpdateBookmark(ctx, existing.ID, func(b *domain.Bookmark) error {
		b.IncrementClickCount()
		return nil
	})
	if err != nil {
		return 0, NewServiceError("record_click", "failed to update bookmark", err)
	}
	s.publishChange(ctx, events.ChangeUpdate, updated, "clickCount")
	return updated.ClickCount, nil
}

func (s *bookmarkServiceImpl) List(ctx context.Context) ([]*domain.Bookmark, error) {
	items, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return nil, NewServiceError("list_bookmarks", "failed to load bookmarks", err)
	}
	if items == nil {
		items = []*domain.Bookmark{}
	}
	return items, nil
}

func (s *bookmarkServiceImpl) Clear(ctx context.Context) error {
	if err := s.store.ClearBookmarks(ctx); err != nil {
		return NewServiceError("clear_bookmarks", "failed to clear bookmarks", err)
	}
	s.queue.Reset()
	s.logger.InfoContext(ctx, "bookmark collection cleared")
	return nil
}

func (s *bookmarkServiceImpl) TabClosed(ctx context.Context, tabID string) error {
	if err := s.sessions.Release(ctx, tabID); err != nil {
		return NewServiceError("tab_closed", "failed to release tab", err)
	}
	return nil
}

func (s *bookmarkServiceImpl) QueueStatus() task.Status {
	return s.queue.Status()
}

// publishChange announces a local mutation for sync. Handler failures never
// undo the mutation.
func (s *bookmarkServiceImpl) publishChange(
	ctx context.Context,
	kind events.ChangeKind,
	item *domain.Bookmark,
	fields ...string,
) {
	err := events.Emit(ctx, s.emitter, events.TypeBookmarkChanged, events.BookmarkChange{
		Kind:   kind,
		Item:   item,
		Fields: fields,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "bookmark change handler failed",
			"error", err,
			"bookmark_id", item.ID,
			"kind", kind,
		)
	}
}
