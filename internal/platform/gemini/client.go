// Package gemini implements generation.Completer on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"google.golang.org/genai"
)

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	// BaseURL overrides the Gemini API endpoint for every key.
	BaseURL string
}

// Client calls the Gemini API. SDK clients are created lazily per API key
// and reused.
type Client struct {
	opts    Options
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ generation.Completer = (*Client)(nil)

// NewClient creates a Client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:    opts,
		logger:  logger.With("component", "gemini_client"),
		clients: make(map[string]*genai.Client),
	}
}

func (c *Client) sdkClient(ctx context.Context, cfg domain.AIConfig) (*genai.Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = c.opts.BaseURL
	}
	key := cfg.APIKey + "|" + baseURL

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[key]; ok {
		return client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %w", generation.ErrInvalidConfig, err)
	}
	c.clients[key] = client
	return client, nil
}

// Complete sends the prompt as a single user turn and returns the response text.
func (c *Client) Complete(ctx context.Context, req generation.Request) (string, error) {
	cfg := req.Config
	model := cfg.ModelOrDefault()

	client, err := c.sdkClient(ctx, cfg)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generation.Temperature),
		MaxOutputTokens: int32(cfg.MaxTokensOrDefault()),
	})
	if err != nil {
		status, classified := classify(ctx, err)
		generation.RecordCompletion(ctx, cfg.Provider, model, status, time.Since(start), classified)
		c.logger.WarnContext(ctx, "gemini request failed",
			"model", model,
			"status", status,
			"error", classified,
		)
		return "", classified
	}

	text, err := responseText(resp)
	generation.RecordCompletion(ctx, cfg.Provider, model, http.StatusOK, time.Since(start), err)
	if err != nil {
		return "", err
	}

	c.logger.DebugContext(ctx, "gemini request succeeded",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text),
	)
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate stopped for safety", generation.ErrContentBlocked)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classify maps SDK errors onto the generation taxonomy and returns the HTTP
// status when the API reported one.
func classify(ctx context.Context, err error) (int, error) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, generation.StatusError(apiErr.Code, apiErr.Message)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return 0, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 0, fmt.Errorf("%w: %w", generation.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, fmt.Errorf("%w: %w", generation.ErrTimeout, err)
	}
	return 0, fmt.Errorf("%w: %w", generation.ErrNetwork, err)
}
