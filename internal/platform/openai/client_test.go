package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, _ := logger.NewTestLogger()
	c := NewClient(Options{
		HTTPClient: srv.Client(),
		Endpoints: map[domain.Provider]string{
			domain.ProviderOpenAI:     srv.URL + "/v1/chat/completions",
			domain.ProviderDeepSeek:   srv.URL + "/chat/completions",
			domain.ProviderOpenRouter: srv.URL + "/api/v1/chat/completions",
		},
	}, log)
	return c, srv
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestCompleteRequestShape(t *testing.T) {
	t.Parallel()

	var got chatRequest
	var headers http.Header
	var path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		reply(w, "  hello  ")
	})

	text, err := c.Complete(context.Background(), generation.Request{
		Config: domain.AIConfig{Provider: domain.ProviderDeepSeek, APIKey: "sk-deep"},
		Prompt: "summarize this",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", text)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer sk-deep", headers.Get("Authorization"))
	assert.Empty(t, headers.Get("X-Title"))
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Equal(t, domain.DefaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "summarize this"}}, got.Messages)
}

func TestCompleteOpenRouterHeaders(t *testing.T) {
	t.Parallel()

	var headers http.Header
	var model string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		reply(w, "ok")
	})

	_, err := c.Complete(context.Background(), generation.Request{
		Config: domain.AIConfig{Provider: domain.ProviderOpenRouter, APIKey: "sk-or", Model: "meta/llama"},
	})
	require.NoError(t, err)

	assert.Equal(t, defaultReferer, headers.Get("HTTP-Referer"))
	assert.Equal(t, defaultTitle, headers.Get("X-Title"))
	assert.Equal(t, "meta/llama", model)
}

func TestCompleteBaseURLOverride(t *testing.T) {
	t.Parallel()

	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		reply(w, "ok")
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{HTTPClient: srv.Client()}, nil)
	_, err := c.Complete(context.Background(), generation.Request{
		Config: domain.AIConfig{Provider: domain.ProviderOpenAI, APIKey: "sk", BaseURL: srv.URL + "/proxy/v1/"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/proxy/v1/chat/completions", path)
}

func TestCompleteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`, wantErr: generation.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantErr: generation.ErrUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: generation.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, wantErr: generation.ErrTransientFailure},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":{"message":"bad model"}}`, wantErr: generation.ErrInvalidRequest},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: generation.ErrInvalidResponse},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":" "}}]}`, wantErr: generation.ErrInvalidResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: generation.ErrInvalidResponse},
		{name: "error body", status: http.StatusOK, body: `{"error":{"message":"quota"}}`, wantErr: generation.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Complete(context.Background(), generation.Request{
				Config: domain.AIConfig{Provider: domain.ProviderOpenAI, APIKey: "sk"},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompleteTransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("unreachable is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(Options{Endpoints: map[domain.Provider]string{domain.ProviderOpenAI: url}}, nil)
		_, err := c.Complete(context.Background(), generation.Request{
			Config: domain.AIConfig{Provider: domain.ProviderOpenAI, APIKey: "sk"},
		})
		assert.ErrorIs(t, err, generation.ErrNetwork)
		assert.True(t, generation.IsTransient(err))
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.Complete(ctx, generation.Request{
			Config: domain.AIConfig{Provider: domain.ProviderOpenAI, APIKey: "sk"},
		})
		assert.ErrorIs(t, err, generation.ErrTimeout)
	})

	t.Run("unknown provider", func(t *testing.T) {
		c := NewClient(Options{}, nil)
		_, err := c.Complete(context.Background(), generation.Request{
			Config: domain.AIConfig{Provider: domain.ProviderGemini, APIKey: "sk"},
		})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestCompleteWithRetryAgainstServer(t *testing.T) {
	t.Parallel()

	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		reply(w, "finally")
	})

	policy := generation.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
	text, err := generation.CompleteWithRetry(context.Background(), c, generation.Request{
		Config: domain.AIConfig{Provider: domain.ProviderOpenAI, APIKey: "sk"},
	}, policy, nil)

	require.NoError(t, err)
	assert.Equal(t, "finally", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
