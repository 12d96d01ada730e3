package mocks

import (
	"context"
	"sync"
)

// MockExtractor returns scripted page text.
type MockExtractor struct {
	// ExtractFn scripts the response. When nil, Pages is consulted and
	// unknown URLs return Err.
	ExtractFn func(ctx context.Context, url string) (string, error)

	Pages map[string]string
	Err   error

	mu   sync.Mutex
	urls []string
}

// NewMockExtractor creates a MockExtractor serving pages by URL.
func NewMockExtractor(pages map[string]string) *MockExtractor {
	return &MockExtractor{Pages: pages}
}

// Extract records the URL and returns the scripted text.
func (m *MockExtractor) Extract(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()

	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, url)
	}
	if text, ok := m.Pages[url]; ok {
		return text, nil
	}
	return "", m.Err
}

// URLs returns every URL requested.
func (m *MockExtractor) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}
