package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
)

// Sentinel errors returned by the services. The API layer maps them to HTTP
// status codes.
var (
	// ErrBookmarkNotFound indicates that no bookmark has the given ID or URL.
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// ErrTabNotBound indicates that no bookmark is associated with the tab.
	ErrTabNotBound = errors.New("no bookmark is bound to this tab")

	// ErrInvalidURL indicates a URL that is not absolute http or https.
	ErrInvalidURL = errors.New("invalid bookmark URL")

	// ErrEmptyQuestion indicates an ask request without a question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrMissingReference indicates a request naming neither a bookmark nor a tab.
	ErrMissingReference = errors.New("bookmark id or tab id is required")

	// ErrNotBookmark indicates an operation on a folder that only applies to
	// saved pages.
	ErrNotBookmark = errors.New("item is not a bookmark")
)

// ServiceError wraps unexpected failures with the operation that hit them.
type ServiceError struct {
	// Operation is the action that failed, e.g. "add_bookmark".
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err for operation. Store and queue sentinels that
// callers check for are translated to this package's sentinels and returned
// unwrapped.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrBookmarkNotFound),
		errors.Is(err, ErrTabNotBound),
		errors.Is(err, ErrInvalidURL),
		errors.Is(err, ErrEmptyQuestion),
		errors.Is(err, ErrMissingReference),
		errors.Is(err, ErrNotBookmark):
		return err
	case errors.Is(err, store.ErrInvalidEntity):
		// A missing parent is a validation failure, not a missing bookmark.
	case errors.Is(err, store.ErrSessionNotFound):
		return ErrTabNotBound
	case errors.Is(err, store.ErrBookmarkNotFound):
		return ErrBookmarkNotFound
	case errors.Is(err, task.ErrNotBookmark):
		return ErrNotBookmark
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
