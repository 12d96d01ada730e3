package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds CompleteWithRetry.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles per retry.
	BaseDelay time.Duration
	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration
}

// DefaultRetryPolicy retries twice, after 2s and 4s, with a 60s attempt timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 2 * time.Second, Timeout: 60 * time.Second}
}

// Backoff returns the wait before retry number attempt (starting at 0).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// CompleteWithRetry calls c, retrying transient failures with exponential
// backoff. Other errors are returned immediately. An attempt that runs past
// the policy timeout is reported as ErrTimeout.
func CompleteWithRetry(
	ctx context.Context,
	c Completer,
	req Request,
	policy RetryPolicy,
	logger *slog.Logger,
) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.Backoff(attempt - 1)
			logger.InfoContext(ctx, "retrying AI completion after delay",
				"attempt", attempt,
				"max_retries", policy.MaxRetries,
				"delay", delay,
				"provider", req.Config.Provider,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			}
		}

		text, err := completeOnce(ctx, c, req, policy.Timeout)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) {
			logger.ErrorContext(ctx, "AI completion failed with permanent error",
				"provider", req.Config.Provider,
				"attempt", attempt+1,
				"error", err,
			)
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}

		logger.WarnContext(ctx, "AI completion failed with transient error",
			"provider", req.Config.Provider,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return "", fmt.Errorf("AI completion failed after %d attempts: %w", policy.MaxRetries+1, lastErr)
}

func completeOnce(ctx context.Context, c Completer, req Request, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return c.Complete(ctx, req)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := c.Complete(attemptCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !IsTransient(err) {
		return "", fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return text, err
}
