package task

import "errors"

var (
	// ErrMissingAPIKey is returned when no AI provider is configured.
	ErrMissingAPIKey = errors.New("AI provider API key missing")

	// ErrContentExtraction is returned when neither the page nor the
	// bookmark's title and URL yield any text.
	ErrContentExtraction = errors.New("content extraction failed")

	// ErrQueueStopped is returned by Enqueue after Stop.
	ErrQueueStopped = errors.New("task queue stopped")

	// ErrNotBookmark is returned when a folder is enqueued.
	ErrNotBookmark = errors.New("only bookmarks can be enriched")

	// ErrNilDependency is returned by constructors given a nil collaborator.
	ErrNilDependency = errors.New("required dependency is nil")

	errAlreadyProcessing = errors.New("bookmark is already processing")
)
