package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/redact"
	"github.com/phrazzld/smartmark/internal/store"
)

const maxResponseBytes = 1 << 20

// Store is the subset of the persistent store the reconciler needs.
type Store interface {
	AuthToken(ctx context.Context) (string, error)
	UpdateBookmark(ctx context.Context, id string, fn func(b *domain.Bookmark) error) (*domain.Bookmark, error)
}

// Options configures a Reconciler.
type Options struct {
	// BaseURL is the remote API root, for example https://api.example.com/v1.
	BaseURL string

	// Timeout bounds each request. Zero selects 15 seconds.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Reconciler sends local bookmark changes to the remote service.
type Reconciler struct {
	store      Store
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	timeFunc  func() time.Time
	clockSkew time.Duration

	wg sync.WaitGroup
}

// New creates a Reconciler.
func New(s Store, opts Options, logger *slog.Logger) (*Reconciler, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Reconciler{
		store:      s,
		baseURL:    base.String(),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		logger:     logger.With("component", "sync_reconciler"),
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// SyncChange sends one change to the remote service. It does nothing when
// the user is signed out, the token has expired, or the item has neither a
// server ID nor a URL. After a successful add the returned server ID is
// stored on the local item.
func (r *Reconciler) SyncChange(ctx context.Context, kind events.ChangeKind, item *domain.Bookmark, fields ...string) error {
	if item == nil {
		return nil
	}
	logger := r.logger.With("bookmark_id", item.ID, "kind", kind)

	token, err := r.store.AuthToken(ctx)
	if err != nil {
		return fmt.Errorf("loading auth token: %w", err)
	}
	if token == "" {
		logger.DebugContext(ctx, "signed out, skipping sync")
		return nil
	}
	if tokenExpired(token, r.timeFunc(), r.clockSkew) {
		logger.WarnContext(ctx, "auth token expired, skipping sync")
		return nil
	}
	if !item.IsSyncEligible() {
		logger.DebugContext(ctx, "item has no server id or url, skipping sync")
		return nil
	}
	if kind == events.ChangeUpdate && len(fields) == 0 {
		return nil
	}

	payload, err := buildPayload(kind, item, fields)
	if err != nil {
		return err
	}

	method, endpoint := r.route(kind, item)
	data, err := r.do(ctx, method, endpoint, token, payload)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "change synced", "method", method, "fields", fields)

	if kind == events.ChangeAdd {
		return r.mergeCreated(ctx, item.ID, data)
	}
	return nil
}

func (r *Reconciler) route(kind events.ChangeKind, item *domain.Bookmark) (string, string) {
	endpoint := r.baseURL + "/bookmarks"
	switch kind {
	case events.ChangeAdd:
		return http.MethodPost, endpoint
	case events.ChangeDelete:
		if item.HasServerID() {
			endpoint += "/" + url.PathEscape(*item.ServerID)
		}
		return http.MethodDelete, endpoint
	default:
		if item.HasServerID() {
			endpoint += "/" + url.PathEscape(*item.ServerID)
		}
		return http.MethodPut, endpoint
	}
}

func (r *Reconciler) do(ctx context.Context, method, endpoint, token string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding sync payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading sync response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrRemote, method, endpoint, resp.StatusCode)
	}
	return data, nil
}

func (r *Reconciler) mergeCreated(ctx context.Context, id string, data []byte) error {
	var remote map[string]any
	if err := json.Unmarshal(data, &remote); err != nil {
		return fmt.Errorf("%w: decoding add response: %v", ErrRemote, err)
	}
	serverID := remoteID(remote[keyID])
	if serverID == "" {
		return fmt.Errorf("%w: add response has no id", ErrRemote)
	}

	var skipped []string
	_, err := r.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		skipped = mergeRemote(b, remote, serverID)
		return nil
	})
	if store.IsNotFoundError(err) {
		r.logger.DebugContext(ctx, "bookmark deleted before add was confirmed", "bookmark_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("storing server id: %w", err)
	}

	if len(skipped) > 0 {
		r.logger.WarnContext(ctx, "ignored undecodable fields in add response",
			"bookmark_id", id,
			"fields", skipped,
		)
	}
	r.logger.InfoContext(ctx, "bookmark linked to server record", "bookmark_id", id, "server_id", serverID)
	return nil
}

// remoteID accepts string and numeric identifiers.
func remoteID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}

// Submit runs SyncChange in the background. Failures are logged and
// dropped. The request outlives ctx cancellation so that a finished HTTP
// handler does not abort it.
func (r *Reconciler) Submit(ctx context.Context, kind events.ChangeKind, item *domain.Bookmark, fields ...string) {
	if item == nil {
		return
	}
	item = item.Clone()
	fields = append([]string(nil), fields...)
	ctx = context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.SyncChange(ctx, kind, item, fields...); err != nil {
			r.logger.WarnContext(ctx, "sync failed",
				"bookmark_id", item.ID,
				"kind", kind,
				"error", redact.Error(err),
			)
		}
	}()
}

// Wait blocks until every submitted change has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
