package service

import (
	"context"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
)

// BrowserNode is one node of a browser bookmark tree. Nodes with a URL are
// bookmarks; nodes without one are folders.
type BrowserNode struct {
	Title    string        `json:"title"`
	URL      string        `json:"url,omitempty"`
	Children []BrowserNode `json:"children,omitempty"`
}

// folderKey identifies a folder by placement and title.
type folderKey struct {
	parentID string
	title    string
}

func parentOrRoot(parentID string) string {
	if parentID == "" {
		return domain.RootParentID
	}
	return parentID
}

// Import flattens the tree parents first and saves it in one write. Untitled
// folders, such as the browser's root node, are not recreated; their children
// are attached to the enclosing folder. A folder whose title already exists
// under the same parent is reused, so importing a tree twice adds nothing.
// Bookmarks whose URL is already saved or not http(s) are skipped. Each new
// bookmark is requested for enrichment.
func (s *bookmarkServiceImpl) Import(ctx context.Context, nodes []BrowserNode) (int, error) {
	existing, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return 0, NewServiceError("import_bookmarks", "failed to load bookmarks", err)
	}
	folders := make(map[folderKey]string)
	for _, item := range existing {
		if !item.IsBookmark() {
			folders[folderKey{item.ParentID, item.Title}] = item.ID
		}
	}

	var batch []*domain.Bookmark
	skipped := 0

	var walk func(nodes []BrowserNode, parentID string)
	walk = func(nodes []BrowserNode, parentID string) {
		for _, node := range nodes {
			if node.URL != "" {
				target, err := normalizeURL(node.URL)
				if err != nil {
					skipped++
					continue
				}
				b, err := domain.NewBookmark(target, node.Title, parentID)
				if err != nil {
					skipped++
					continue
				}
				batch = append(batch, b)
				continue
			}

			title := strings.TrimSpace(node.Title)
			if title == "" {
				walk(node.Children, parentID)
				continue
			}
			key := folderKey{parentOrRoot(parentID), title}
			if id, ok := folders[key]; ok {
				walk(node.Children, id)
				continue
			}
			folder, err := domain.NewFolder(title, parentID)
			if err != nil {
				skipped++
				continue
			}
			folders[key] = folder.ID
			batch = append(batch, folder)
			walk(node.Children, folder.ID)
		}
	}
	walk(nodes, "")

	added, err := s.store.AddBookmarks(ctx, batch)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to import bookmarks", "error", err, "batch_size", len(batch))
		return 0, NewServiceError("import_bookmarks", "failed to save imported bookmarks", err)
	}

	count := 0
	for _, item := range added {
		s.publishChange(ctx, events.ChangeAdd, item)
		if !item.IsBookmark() {
			continue
		}
		count++
		if err := events.Emit(ctx, s.emitter, events.TypeEnrichmentRequested, events.EnrichmentRequest{
			BookmarkID: item.ID,
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to request enrichment", "error", err, "bookmark_id", item.ID)
		}
	}

	s.logger.InfoContext(ctx, "browser bookmarks imported",
		"imported", count,
		"items", len(added),
		"skipped", skipped,
	)
	return count, nil
}
