package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/smartmark/internal/api/shared"
	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/service"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "nil error", err: nil, expectedStatus: http.StatusInternalServerError},
		{name: "unknown action", err: fmt.Errorf("%w: %q", ErrUnknownAction, "x"), expectedStatus: http.StatusBadRequest},
		{name: "empty body", err: fmt.Errorf("%w: %w", ErrMalformedMessage, shared.ErrEmptyBody), expectedStatus: http.StatusBadRequest},
		{name: "domain validation", err: fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyURL), expectedStatus: http.StatusBadRequest},
		{name: "invalid url", err: service.ErrInvalidURL, expectedStatus: http.StatusBadRequest},
		{name: "empty question", err: service.ErrEmptyQuestion, expectedStatus: http.StatusBadRequest},
		{name: "folder enqueued", err: task.ErrNotBookmark, expectedStatus: http.StatusBadRequest},
		{name: "invalid entity wrapping not found", err: fmt.Errorf("%w: %w", store.ErrInvalidEntity, store.ErrBookmarkNotFound), expectedStatus: http.StatusBadRequest},
		{name: "bookmark not found", err: service.ErrBookmarkNotFound, expectedStatus: http.StatusNotFound},
		{name: "store not found", err: store.ErrKeyNotFound, expectedStatus: http.StatusNotFound},
		{name: "duplicate", err: store.ErrURLExists, expectedStatus: http.StatusConflict},
		{name: "missing api key", err: task.ErrMissingAPIKey, expectedStatus: http.StatusPreconditionFailed},
		{name: "invalid provider config", err: generation.ErrInvalidConfig, expectedStatus: http.StatusPreconditionFailed},
		{name: "rate limited", err: generation.ErrRateLimited, expectedStatus: http.StatusTooManyRequests},
		{name: "timeout", err: generation.ErrTimeout, expectedStatus: http.StatusGatewayTimeout},
		{name: "network", err: generation.ErrNetwork, expectedStatus: http.StatusBadGateway},
		{name: "unauthorized key", err: generation.ErrUnauthorized, expectedStatus: http.StatusBadGateway},
		{name: "unparseable response", err: generation.ErrInvalidResponse, expectedStatus: http.StatusBadGateway},
		{name: "blocked", err: generation.ErrContentBlocked, expectedStatus: http.StatusUnprocessableEntity},
		{name: "stopping", err: task.ErrQueueStopped, expectedStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStatus, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "An unexpected error occurred"},
		{name: "invalid entity", err: fmt.Errorf("%w: bookmark", store.ErrInvalidEntity), want: "Invalid bookmark data"},
		{name: "missing parent", err: fmt.Errorf("%w: %w", store.ErrInvalidEntity, store.ErrBookmarkNotFound), want: "Parent folder not found"},
		{name: "missing reference", err: service.ErrMissingReference, want: "A bookmark id or tab id is required"},
		{name: "duplicate", err: store.ErrURLExists, want: "Bookmark already exists"},
		{name: "unauthorized key", err: fmt.Errorf("%w: status 401", generation.ErrUnauthorized), want: "AI provider rejected the API key"},
		{name: "transient", err: generation.ErrNetwork, want: "AI provider request failed"},
		{name: "raw error is hidden", err: errors.New("pq: password authentication failed for user smartmark"), want: "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	var req AddCurrentPageRequest
	err := shared.ValidateRequest(req)
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Equal(t, "Invalid tabId: required field", SanitizeValidationError(err))
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("plain")))
}
