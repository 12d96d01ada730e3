package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/smartmark/internal/api/shared"
	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/service"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
)

// Errors produced by the message dispatcher itself.
var (
	// ErrUnknownAction is returned for an action name the API does not handle.
	ErrUnknownAction = errors.New("unknown action")

	// ErrMalformedMessage is returned when the body is not a JSON object
	// with an action.
	ErrMalformedMessage = errors.New("malformed message")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Bad request errors. Invalid entities are checked before not-found
	// because a missing parent folder wraps both.
	case errors.Is(err, ErrMalformedMessage),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidURL),
		errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrMissingReference),
		errors.Is(err, service.ErrNotBookmark),
		errors.Is(err, task.ErrNotBookmark):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrBookmarkNotFound),
		errors.Is(err, service.ErrTabNotBound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// The user has not set up a provider yet
	case errors.Is(err, task.ErrMissingAPIKey),
		errors.Is(err, generation.ErrInvalidConfig):
		return http.StatusPreconditionFailed

	// AI provider errors
	case errors.Is(err, generation.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, generation.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrUnauthorized),
		errors.Is(err, generation.ErrInvalidRequest),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return http.StatusBadGateway

	case errors.Is(err, task.ErrQueueStopped):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, ErrUnknownAction):
		return "Unknown action"
	case errors.Is(err, ErrMalformedMessage), errors.Is(err, shared.ErrEmptyBody):
		return "Invalid request format"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		if errors.Is(err, store.ErrNotFound) {
			return "Parent folder not found"
		}
		return "Invalid bookmark data"
	case errors.Is(err, service.ErrInvalidURL):
		return "URL must be an absolute http or https address"
	case errors.Is(err, service.ErrEmptyQuestion):
		return "Question cannot be empty"
	case errors.Is(err, service.ErrMissingReference):
		return "A bookmark id or tab id is required"
	case errors.Is(err, service.ErrNotBookmark),
		errors.Is(err, task.ErrNotBookmark):
		return "Folders cannot be enriched"

	case errors.Is(err, service.ErrTabNotBound):
		return "No bookmark is associated with this tab"
	case errors.Is(err, service.ErrBookmarkNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Bookmark not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Bookmark already exists"

	case errors.Is(err, task.ErrMissingAPIKey):
		return "AI provider is not configured"
	case errors.Is(err, generation.ErrInvalidConfig):
		return "AI provider configuration is invalid"
	case errors.Is(err, generation.ErrUnauthorized):
		return "AI provider rejected the API key"
	case errors.Is(err, generation.ErrRateLimited):
		return "AI provider rate limit exceeded, try again later"
	case errors.Is(err, generation.ErrTimeout):
		return "AI provider timed out"
	case errors.Is(err, generation.ErrContentBlocked):
		return "AI provider blocked this content"
	case errors.Is(err, generation.ErrInvalidRequest),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return "AI provider request failed"

	case errors.Is(err, task.ErrQueueStopped):
		return "Service is shutting down"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if errors.Is(err, generation.ErrUnauthorized) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

// SanitizeValidationError turns validator errors into a message naming the
// first offending field without echoing its value.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	fe := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without":
		return "required field"
	case "url", "http_url":
		return "invalid URL"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
