package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemType distinguishes saved pages from folders.
type ItemType string

// Possible item types
const (
	ItemTypeBookmark ItemType = "bookmark"
	ItemTypeFolder   ItemType = "folder"
)

// RootParentID is the parent of every top-level item.
const RootParentID = "root"

// AIStatus represents the enrichment state of a bookmark
type AIStatus string

// Possible AI status values
const (
	AIStatusPending    AIStatus = "pending"
	AIStatusProcessing AIStatus = "processing"
	AIStatusCompleted  AIStatus = "completed"
	AIStatusFailed     AIStatus = "failed"
)

// IsValid reports whether the status is one of the four known values.
func (s AIStatus) IsValid() bool {
	switch s {
	case AIStatusPending, AIStatusProcessing, AIStatusCompleted, AIStatusFailed:
		return true
	default:
		return false
	}
}

// Bookmark is a saved page or a folder in the user's collection.
// Field names follow the extension storage layout.
type Bookmark struct {
	ID           string    `json:"id"`
	ServerID     *string   `json:"serverId"`
	Type         ItemType  `json:"type"`
	ParentID     string    `json:"parentId"`
	URL          string    `json:"url,omitempty"`
	Title        string    `json:"title"`
	DateAdded    time.Time `json:"dateAdded"`
	LastModified time.Time `json:"lastModified"`

	AIStatus AIStatus `json:"aiStatus,omitempty"`
	AIError  string   `json:"aiError,omitempty"`

	Summary           string   `json:"summary,omitempty"`
	Category          string   `json:"category,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	ContentType       string   `json:"contentType,omitempty"`
	ReadingLevel      string   `json:"readingLevel,omitempty"`
	KeyPoints         []string `json:"keyPoints,omitempty"`
	Sentiment         string   `json:"sentiment,omitempty"`
	EstimatedReadTime int      `json:"estimatedReadTime,omitempty"`
	SmartCategories   []string `json:"smartCategories,omitempty"`

	IsStarred  bool   `json:"isStarred"`
	ClickCount int    `json:"clickCount"`
	Notes      string `json:"notes,omitempty"`
}

// AIFields are the JSON names of the fields written by enrichment.
var AIFields = []string{
	"aiStatus", "aiError", "summary", "category", "tags", "contentType",
	"readingLevel", "keyPoints", "sentiment", "estimatedReadTime", "smartCategories",
}

// NewBookmark creates a bookmark awaiting enrichment.
// An empty parentID places the bookmark at the root.
func NewBookmark(url, title, parentID string) (*Bookmark, error) {
	now := time.Now().UTC()
	url = strings.TrimSpace(url)
	if title = strings.TrimSpace(title); title == "" {
		title = url
	}

	b := &Bookmark{
		ID:           uuid.NewString(),
		Type:         ItemTypeBookmark,
		ParentID:     parentOrRoot(parentID),
		URL:          url,
		Title:        title,
		DateAdded:    now,
		LastModified: now,
		AIStatus:     AIStatusPending,
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// NewFolder creates an empty folder.
func NewFolder(title, parentID string) (*Bookmark, error) {
	now := time.Now().UTC()
	f := &Bookmark{
		ID:           uuid.NewString(),
		Type:         ItemTypeFolder,
		ParentID:     parentOrRoot(parentID),
		Title:        strings.TrimSpace(title),
		DateAdded:    now,
		LastModified: now,
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func parentOrRoot(parentID string) string {
	if strings.TrimSpace(parentID) == "" {
		return RootParentID
	}
	return parentID
}

// Validate checks the structural invariants of the item.
func (b *Bookmark) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidID)
	}

	switch b.Type {
	case ItemTypeBookmark:
		if strings.TrimSpace(b.URL) == "" {
			return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyURL)
		}
	case ItemTypeFolder:
		if b.URL != "" {
			return fmt.Errorf("%w: %w", ErrValidation, ErrFolderURL)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidItemType, b.Type)
	}

	if b.AIStatus != "" && !b.AIStatus.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidAIStatus, b.AIStatus)
	}

	if b.ParentID == b.ID {
		return fmt.Errorf("%w: %w", ErrValidation, ErrCycle)
	}

	return nil
}

// IsBookmark reports whether the item is a saved page.
func (b *Bookmark) IsBookmark() bool {
	return b.Type == ItemTypeBookmark
}

// HasServerID reports whether the remote service has confirmed this item.
func (b *Bookmark) HasServerID() bool {
	return b.ServerID != nil && *b.ServerID != ""
}

// IsSyncEligible reports whether the item can be addressed remotely, either
// by its server ID or by URL fallback lookup.
func (b *Bookmark) IsSyncEligible() bool {
	return b.HasServerID() || (b.IsBookmark() && b.URL != "")
}

// NeedsEnrichment reports whether the item was left pending or processing,
// for example by a process that exited mid-job.
func (b *Bookmark) NeedsEnrichment() bool {
	return b.IsBookmark() &&
		(b.AIStatus == AIStatusPending || b.AIStatus == AIStatusProcessing)
}

// SetAIStatus moves the item to the given enrichment state.
// Completing clears any previous error.
func (b *Bookmark) SetAIStatus(status AIStatus, errMsg string) error {
	if !status.IsValid() {
		return ErrInvalidAIStatus
	}

	b.AIStatus = status
	switch status {
	case AIStatusFailed:
		b.AIError = errMsg
	default:
		b.AIError = ""
	}
	b.Touch()
	return nil
}

// IncrementClickCount records one more visit.
func (b *Bookmark) IncrementClickCount() int {
	b.ClickCount++
	b.Touch()
	return b.ClickCount
}

// Touch updates LastModified.
func (b *Bookmark) Touch() {
	b.LastModified = time.Now().UTC()
}

// Clone returns a deep copy so callers can mutate it without sharing slices.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}

	c := *b
	if b.ServerID != nil {
		id := *b.ServerID
		c.ServerID = &id
	}
	c.Tags = cloneStrings(b.Tags)
	c.KeyPoints = cloneStrings(b.KeyPoints)
	c.SmartCategories = cloneStrings(b.SmartCategories)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// DescendantIDs returns rootID followed by every item transitively contained
// in it. Items whose parent chain loops are visited at most once.
func DescendantIDs(items []*Bookmark, rootID string) []string {
	children := make(map[string][]string, len(items))
	for _, item := range items {
		children[item.ParentID] = append(children[item.ParentID], item.ID)
	}

	visited := map[string]bool{rootID: true}
	result := []string{rootID}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}

	return result
}

// WouldCreateCycle reports whether placing itemID under parentID would make
// the item its own ancestor.
func WouldCreateCycle(items []*Bookmark, itemID, parentID string) bool {
	if parentID == "" || parentID == RootParentID {
		return false
	}
	if itemID == parentID {
		return true
	}

	for _, id := range DescendantIDs(items, itemID) {
		if id == parentID {
			return true
		}
	}
	return false
}
