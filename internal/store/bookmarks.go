package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/smartmark/internal/domain"
)

func (s *Store) loadBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	var items []*domain.Bookmark
	if _, err := s.getJSON(ctx, KeyBookmarks, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) saveBookmarks(ctx context.Context, items []*domain.Bookmark) error {
	if items == nil {
		items = []*domain.Bookmark{}
	}
	return s.putJSON(ctx, KeyBookmarks, items)
}

func cloneAll(items []*domain.Bookmark) []*domain.Bookmark {
	out := make([]*domain.Bookmark, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func indexOf(items []*domain.Bookmark, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// checkPlacement verifies that item's parent exists and is a folder, and that
// placing it there keeps the tree acyclic.
func checkPlacement(items []*domain.Bookmark, item *domain.Bookmark) error {
	if item.ParentID == domain.RootParentID {
		return nil
	}
	i := indexOf(items, item.ParentID)
	if i < 0 {
		return invalid(fmt.Errorf("parent %q: %w", item.ParentID, ErrBookmarkNotFound))
	}
	if items[i].Type != domain.ItemTypeFolder {
		return invalid(fmt.Errorf("parent %q is not a folder", item.ParentID))
	}
	if domain.WouldCreateCycle(items, item.ID, item.ParentID) {
		return invalid(domain.ErrCycle)
	}
	return nil
}

// ListBookmarks returns a copy of every bookmark and folder.
func (s *Store) ListBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	return cloneAll(items), nil
}

// GetBookmark returns a copy of the item with the given ID.
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, id); i >= 0 {
		return items[i].Clone(), nil
	}
	return nil, fmt.Errorf("%w: id %s", ErrBookmarkNotFound, id)
}

// FindBookmarkByURL returns a copy of the bookmark saved for url.
func (s *Store) FindBookmarkByURL(ctx context.Context, url string) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.IsBookmark() && item.URL == url {
			return item.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: url %s", ErrBookmarkNotFound, url)
}

// AddBookmark appends a new item. Bookmarks are rejected with ErrURLExists
// when their URL is already saved.
func (s *Store) AddBookmark(ctx context.Context, item *domain.Bookmark) error {
	if err := item.Validate(); err != nil {
		return invalid(err)
	}

	return s.locked(ctx, func() ([]string, error) {
		items, err := s.loadBookmarks(ctx)
		if err != nil {
			return nil, err
		}

		for _, existing := range items {
			if existing.ID == item.ID {
				return nil, fmt.Errorf("%w: id %s", ErrDuplicate, item.ID)
			}
			if item.IsBookmark() && existing.IsBookmark() && existing.URL == item.URL {
				return nil, fmt.Errorf("%w: %s", ErrURLExists, item.URL)
			}
		}
		if err := checkPlacement(items, item); err != nil {
			return nil, err
		}

		if err := s.saveBookmarks(ctx, append(items, item.Clone())); err != nil {
			return nil, err
		}
		return []string{KeyBookmarks}, nil
	})
}

// AddBookmarks appends items in order within one write and returns the ones
// that were added. Bookmarks whose URL is already saved, or repeated earlier
// in the batch, are skipped. Items must be ordered parents first.
func (s *Store) AddBookmarks(ctx context.Context, batch []*domain.Bookmark) ([]*domain.Bookmark, error) {
	var added []*domain.Bookmark

	err := s.locked(ctx, func() ([]string, error) {
		items, err := s.loadBookmarks(ctx)
		if err != nil {
			return nil, err
		}

		urls := make(map[string]bool, len(items))
		for _, existing := range items {
			if existing.IsBookmark() {
				urls[existing.URL] = true
			}
		}

		for _, item := range batch {
			if err := item.Validate(); err != nil {
				return nil, invalid(err)
			}
			if item.IsBookmark() && urls[item.URL] {
				continue
			}
			if err := checkPlacement(items, item); err != nil {
				return nil, err
			}
			if item.IsBookmark() {
				urls[item.URL] = true
			}
			items = append(items, item.Clone())
			added = append(added, item.Clone())
		}

		if len(added) == 0 {
			return nil, nil
		}
		if err := s.saveBookmarks(ctx, items); err != nil {
			added = nil
			return nil, err
		}
		return []string{KeyBookmarks}, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateBookmark applies fn to a copy of the item and stores the result.
// The ID and type cannot be changed; a new parent is checked for cycles.
func (s *Store) UpdateBookmark(
	ctx context.Context,
	id string,
	fn func(b *domain.Bookmark) error,
) (*domain.Bookmark, error) {
	var updated *domain.Bookmark

	err := s.locked(ctx, func() ([]string, error) {
		items, err := s.loadBookmarks(ctx)
		if err != nil {
			return nil, err
		}

		i := indexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: id %s", ErrBookmarkNotFound, id)
		}

		candidate := items[i].Clone()
		if err := fn(candidate); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
		}
		if candidate.ID != items[i].ID || candidate.Type != items[i].Type {
			return nil, invalid(fmt.Errorf("id and type of %s are immutable", id))
		}
		if err := candidate.Validate(); err != nil {
			return nil, invalid(err)
		}
		if candidate.ParentID != items[i].ParentID {
			if err := checkPlacement(items, candidate); err != nil {
				return nil, err
			}
		}

		items[i] = candidate
		if err := s.saveBookmarks(ctx, items); err != nil {
			return nil, err
		}
		updated = candidate.Clone()
		return []string{KeyBookmarks}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateBookmarks applies fn to copies of every item and returns the items fn
// reported as changed. fn returns the IDs it modified; nothing is written
// when that list is empty.
func (s *Store) UpdateBookmarks(
	ctx context.Context,
	fn func(items []*domain.Bookmark) []string,
) ([]*domain.Bookmark, error) {
	var changed []*domain.Bookmark

	err := s.locked(ctx, func() ([]string, error) {
		items, err := s.loadBookmarks(ctx)
		if err != nil {
			return nil, err
		}

		candidates := cloneAll(items)
		ids := fn(candidates)
		if len(ids) == 0 {
			return nil, nil
		}

		for _, id := range ids {
			i := indexOf(candidates, id)
			if i < 0 {
				continue
			}
			if err := candidates[i].Validate(); err != nil {
				return nil, invalid(err)
			}
			changed = append(changed, candidates[i].Clone())
		}

		if err := s.saveBookmarks(ctx, candidates); err != nil {
			changed = nil
			return nil, err
		}
		return []string{KeyBookmarks}, nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// DeleteBookmarkTree removes the item and every transitive descendant and
// returns the removed items, the requested item first.
func (s *Store) DeleteBookmarkTree(ctx context.Context, id string) ([]*domain.Bookmark, error) {
	var removed []*domain.Bookmark

	err := s.locked(ctx, func() ([]string, error) {
		items, err := s.loadBookmarks(ctx)
		if err != nil {
			return nil, err
		}
		if indexOf(items, id) < 0 {
			return nil, fmt.Errorf("%w: id %s", ErrBookmarkNotFound, id)
		}

		doomed := make(map[string]bool)
		for _, descendant := range domain.DescendantIDs(items, id) {
			doomed[descendant] = true
		}

		kept := make([]*domain.Bookmark, 0, len(items))
		for _, item := range items {
			if !doomed[item.ID] {
				kept = append(kept, item)
				continue
			}
			if item.ID == id {
				removed = append([]*domain.Bookmark{item.Clone()}, removed...)
			} else {
				removed = append(removed, item.Clone())
			}
		}

		if err := s.saveBookmarks(ctx, kept); err != nil {
			removed = nil
			return nil, err
		}
		return []string{KeyBookmarks}, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ClearBookmarks removes the whole collection and the category registry.
func (s *Store) ClearBookmarks(ctx context.Context) error {
	return s.locked(ctx, func() ([]string, error) {
		if err := s.kv.Delete(ctx, KeyBookmarks, KeySmartCategories); err != nil {
			return nil, NewStoreError(KeyBookmarks, "delete", "backend delete failed", err)
		}
		return []string{KeyBookmarks, KeySmartCategories}, nil
	})
}
