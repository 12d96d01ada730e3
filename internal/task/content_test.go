package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		url   string
		want  string
	}{
		{"title and path", "Badger Guide", "https://example.com/guides/intro-to-badger.html", "Badger Guide guides intro to badger"},
		{"numeric segments dropped", "Release", "https://example.com/2024/01/go_1_22", "Release go 1 22"},
		{"escaped segment", "", "https://example.com/docs/hello%20world", "docs hello world"},
		{"title only", "Home", "https://example.com/", "Home"},
		{"nothing usable", "", "https://example.com/2024/01", ""},
		{"unparseable url", "Title", "://bad", "Title"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FallbackContent(tc.title, tc.url))
		})
	}
}
