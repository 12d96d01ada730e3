package generation

import (
	"errors"
	"fmt"
)

// Errors returned by completers. Retryable errors wrap ErrTransientFailure.
var (
	// ErrInvalidConfig is returned when provider, key or model are missing or unknown.
	ErrInvalidConfig = errors.New("invalid AI provider configuration")

	// ErrTransientFailure marks errors that may resolve on retry.
	ErrTransientFailure = errors.New("transient AI provider failure")

	// ErrRateLimited is returned when the provider throttles the request.
	ErrRateLimited = fmt.Errorf("%w: rate limit exceeded", ErrTransientFailure)

	// ErrTimeout is returned when a single attempt runs past its deadline.
	ErrTimeout = fmt.Errorf("%w: request timeout", ErrTransientFailure)

	// ErrNetwork is returned when the provider cannot be reached.
	ErrNetwork = fmt.Errorf("%w: network error", ErrTransientFailure)

	// ErrUnauthorized is returned when the provider rejects the API key.
	ErrUnauthorized = errors.New("API key invalid or unauthorized")

	// ErrInvalidRequest is returned when the provider rejects the request itself.
	ErrInvalidRequest = errors.New("invalid request to AI provider")

	// ErrInvalidResponse is returned when the provider answers without usable text.
	ErrInvalidResponse = errors.New("invalid response from AI provider")

	// ErrContentBlocked is returned when provider safety filters block the prompt.
	ErrContentBlocked = errors.New("content blocked by AI provider safety filters")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}

// StatusError classifies an HTTP status code returned by a provider.
// It returns nil for 2xx codes.
func StatusError(code int, body string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 401 || code == 403:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code == 429:
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, code, body)
	case code == 408 || code == 504:
		return fmt.Errorf("%w: status %d", ErrTimeout, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrTransientFailure, code, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, code, body)
	}
}
