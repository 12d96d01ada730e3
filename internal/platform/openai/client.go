// Package openai implements generation.Completer for OpenAI-compatible chat
// completion APIs: OpenAI, DeepSeek and OpenRouter.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
)

// Default chat completion endpoints per provider.
var DefaultEndpoints = map[domain.Provider]string{
	domain.ProviderOpenAI:     "https://api.openai.com/v1/chat/completions",
	domain.ProviderDeepSeek:   "https://api.deepseek.com/chat/completions",
	domain.ProviderOpenRouter: "https://openrouter.ai/api/v1/chat/completions",
}

const (
	defaultReferer = "https://github.com/phrazzld/smartmark"
	defaultTitle   = "SmartMark"

	maxResponseBytes = 4 << 20
	maxErrorSnippet  = 200
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// Endpoints overrides DefaultEndpoints per provider.
	Endpoints map[domain.Provider]string
	// Referer and Title are sent to OpenRouter for attribution.
	Referer string
	Title   string
}

// Client sends chat completion requests.
type Client struct {
	httpClient *http.Client
	endpoints  map[domain.Provider]string
	referer    string
	title      string
	logger     *slog.Logger
}

var _ generation.Completer = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	endpoints := make(map[domain.Provider]string, len(DefaultEndpoints))
	for p, u := range DefaultEndpoints {
		endpoints[p] = u
	}
	for p, u := range opts.Endpoints {
		endpoints[p] = u
	}

	c := &Client{
		httpClient: opts.HTTPClient,
		endpoints:  endpoints,
		referer:    opts.Referer,
		title:      opts.Title,
		logger:     logger.With("component", "openai_client"),
	}
	if c.referer == "" {
		c.referer = defaultReferer
	}
	if c.title == "" {
		c.title = defaultTitle
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete posts the prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, req generation.Request) (string, error) {
	cfg := req.Config
	endpoint, err := c.endpoint(cfg)
	if err != nil {
		return "", err
	}
	model := cfg.ModelOrDefault()

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   cfg.MaxTokensOrDefault(),
		Temperature: generation.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", generation.ErrInvalidRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidConfig, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if cfg.Provider == domain.ProviderOpenRouter {
		httpReq.Header.Set("HTTP-Referer", c.referer)
		httpReq.Header.Set("X-Title", c.title)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = classifyTransportError(ctx, err)
		generation.RecordCompletion(ctx, cfg.Provider, model, 0, time.Since(start), err)
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		err = classifyTransportError(ctx, err)
		generation.RecordCompletion(ctx, cfg.Provider, model, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	if statusErr := generation.StatusError(resp.StatusCode, snippet(data)); statusErr != nil {
		generation.RecordCompletion(ctx, cfg.Provider, model, resp.StatusCode, time.Since(start), statusErr)
		c.logger.WarnContext(ctx, "chat completion rejected",
			"provider", cfg.Provider,
			"model", model,
			"status", resp.StatusCode,
		)
		return "", statusErr
	}

	text, err := decode(data)
	generation.RecordCompletion(ctx, cfg.Provider, model, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return "", err
	}

	c.logger.DebugContext(ctx, "chat completion succeeded",
		"provider", cfg.Provider,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text),
	)
	return text, nil
}

func (c *Client) endpoint(cfg domain.AIConfig) (string, error) {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions", nil
	}
	endpoint, ok := c.endpoints[cfg.Provider]
	if !ok {
		return "", fmt.Errorf("%w: provider %q has no chat completion endpoint", generation.ErrInvalidConfig, cfg.Provider)
	}
	return endpoint, nil
}

func decode(data []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", generation.ErrInvalidResponse, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", generation.ErrInvalidResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classifyTransportError maps errors from the HTTP round trip onto the
// generation error taxonomy. A cancelled caller context is returned as is.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", generation.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", generation.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", generation.ErrNetwork, err)
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
