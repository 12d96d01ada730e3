package task

import (
	"context"

	"github.com/phrazzld/smartmark/internal/domain"
)

// BookmarkStore is the part of store.Store the queue and pipeline use.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context) ([]*domain.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, fn func(b *domain.Bookmark) error) (*domain.Bookmark, error)
	UpdateBookmarks(ctx context.Context, fn func(items []*domain.Bookmark) []string) ([]*domain.Bookmark, error)
}

// SettingsStore provides the configuration an enrichment run depends on.
type SettingsStore interface {
	AIConfig(ctx context.Context) (*domain.AIConfig, error)
	Preferences(ctx context.Context) (domain.Preferences, error)
	Categories(ctx context.Context) (domain.CategoryRegistry, error)
	RecordCategories(ctx context.Context, names ...string) ([]string, error)
}

// Extractor returns best-effort plain text for a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Processor runs one enrichment job. It reports failure by persisting it,
// never by returning it, so one job cannot affect its siblings.
type Processor interface {
	Process(ctx context.Context, id string)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, id string)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, id string) { f(ctx, id) }
