// Package extractor turns web pages into plain text for enrichment.
//
// Extraction is best effort: pages are fetched over HTTP, stripped of markup
// with a strict bluemonday policy and whitespace-normalized. Callers treat an
// error or empty text as "nothing usable".
package extractor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Errors returned by Fetch.
var (
	ErrFetchFailed        = errors.New("page fetch failed")
	ErrUnsupportedContent = errors.New("unsupported content type")
)

const (
	defaultUserAgent = "SmartMark/1.0 (+https://github.com/phrazzld/smartmark)"
	defaultTimeout   = 15 * time.Second
	defaultMaxChars  = 8000
	maxBodyBytes     = 4 << 20
)

var (
	titlePattern      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	whitespacePattern = regexp.MustCompile(`[ \t\f\r\v]+`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n+`)
)

// Options configures an Extractor. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// MaxChars caps the returned text in runes.
	MaxChars  int
	UserAgent string
}

// Page is the readable content of a fetched page.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Extractor fetches pages and extracts readable text.
type Extractor struct {
	client    *http.Client
	timeout   time.Duration
	maxChars  int
	userAgent string
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

// New creates an Extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaultMaxChars
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return &Extractor{
		client:    opts.HTTPClient,
		timeout:   opts.Timeout,
		maxChars:  opts.MaxChars,
		userAgent: opts.UserAgent,
		policy:    bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true),
		logger:    logger.With("component", "extractor"),
	}
}

// Extract returns the readable text of the page at url.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	page, err := e.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return page.Text, nil
}

// Fetch downloads url and extracts its title and text.
func (e *Extractor) Fetch(ctx context.Context, url string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	mediaType := "text/html"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = parsed
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("%w: reading body: %w", ErrFetchFailed, err)
	}

	page := Page{URL: url}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		page.Title = Title(string(body))
		page.Text = e.HTMLToText(string(body))
	case "text/plain":
		page.Text = e.truncate(normalize(string(body)))
	default:
		return Page{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType)
	}

	e.logger.DebugContext(ctx, "page extracted",
		"url", url,
		"content_type", mediaType,
		"text_length", len(page.Text),
	)
	return page, nil
}

// HTMLToText strips markup from doc and returns normalized, truncated text.
// Script and style contents are dropped.
func (e *Extractor) HTMLToText(doc string) string {
	return e.truncate(normalize(html.UnescapeString(e.policy.Sanitize(doc))))
}

// Title returns the unescaped contents of the document's title element.
func Title(doc string) string {
	m := titlePattern.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(normalize(html.UnescapeString(m[1])))
}

func normalize(s string) string {
	s = whitespacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func (e *Extractor) truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= e.maxChars {
		return s
	}
	return strings.TrimSpace(string(runes[:e.maxChars]))
}
