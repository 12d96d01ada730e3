package service

import (
	"context"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/platform/extractor"
	"github.com/phrazzld/smartmark/internal/task"
)

// BookmarkStore is the bookmark collection as the services use it.
// *store.Store implements it.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context) ([]*domain.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	FindBookmarkByURL(ctx context.Context, url string) (*domain.Bookmark, error)
	AddBookmark(ctx context.Context, item *domain.Bookmark) error
	AddBookmarks(ctx context.Context, batch []*domain.Bookmark) ([]*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, fn func(b *domain.Bookmark) error) (*domain.Bookmark, error)
	DeleteBookmarkTree(ctx context.Context, id string) ([]*domain.Bookmark, error)
	ClearBookmarks(ctx context.Context) error
}

// SettingsStore holds provider configuration, preferences and the account token.
type SettingsStore interface {
	AIConfig(ctx context.Context) (*domain.AIConfig, error)
	SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error
	Preferences(ctx context.Context) (domain.Preferences, error)
	SavePreferences(ctx context.Context, prefs domain.Preferences) error
	SetAuthToken(ctx context.Context, token string) error
}

// Queue is the enrichment queue.
type Queue interface {
	Enqueue(ctx context.Context, id string) (bool, error)
	Reset()
	Status() task.Status
}

// PageFetcher downloads a page and extracts its title and text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (extractor.Page, error)
}
