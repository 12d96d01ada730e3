package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/smartmark/internal/generation"
)

// MockCompleter implements generation.Completer for testing.
type MockCompleter struct {
	// CompleteFn scripts the response. When nil, Text and Err are returned.
	CompleteFn func(ctx context.Context, req generation.Request) (string, error)

	Text string
	Err  error

	mu       sync.Mutex
	requests []generation.Request
}

var _ generation.Completer = (*MockCompleter)(nil)

// NewMockCompleterWithText creates a MockCompleter that always returns text.
func NewMockCompleterWithText(text string) *MockCompleter {
	return &MockCompleter{Text: text}
}

// NewMockCompleterWithError creates a MockCompleter that always fails with err.
func NewMockCompleterWithError(err error) *MockCompleter {
	return &MockCompleter{Err: err}
}

// Complete records the request and returns the scripted response.
func (m *MockCompleter) Complete(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	return m.Text, m.Err
}

// Calls returns the number of Complete calls.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *MockCompleter) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockCompleter) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ""
	}
	return m.requests[len(m.requests)-1].Prompt
}
