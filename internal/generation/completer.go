package generation

import (
	"context"
	"fmt"

	"github.com/phrazzld/smartmark/internal/domain"
)

// Temperature is sent with every completion request.
const Temperature = 0.2

// Request is a single prompt sent to the configured provider.
type Request struct {
	Config domain.AIConfig
	Prompt string
}

// Completer returns the completion text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Router dispatches to a Completer by provider.
type Router map[domain.Provider]Completer

var _ Completer = Router(nil)

// Complete validates the configuration and forwards to the provider's completer.
func (r Router) Complete(ctx context.Context, req Request) (string, error) {
	if !req.Config.IsConfigured() {
		return "", fmt.Errorf("%w: provider and API key are required", ErrInvalidConfig)
	}
	if err := req.Config.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c, ok := r[req.Config.Provider]
	if !ok || c == nil {
		return "", fmt.Errorf("%w: no client for provider %q", ErrInvalidConfig, req.Config.Provider)
	}
	return c.Complete(ctx, req)
}
