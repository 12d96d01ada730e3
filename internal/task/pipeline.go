package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/store"
)

// promptCategoryLimit caps the existing categories listed in the prompt.
const promptCategoryLimit = 30

// PipelineStore is what an enrichment run reads and writes.
type PipelineStore interface {
	BookmarkStore
	SettingsStore
}

// Pipeline enriches one bookmark per Process call.
type Pipeline struct {
	store     PipelineStore
	extractor Extractor
	completer generation.Completer
	prompts   *generation.Prompts
	emitter   events.EventEmitter
	retry     generation.RetryPolicy
	logger    *slog.Logger
}

var _ Processor = (*Pipeline)(nil)

// NewPipeline creates a Pipeline. A nil emitter disables change events.
func NewPipeline(
	store PipelineStore,
	extractor Extractor,
	completer generation.Completer,
	prompts *generation.Prompts,
	emitter events.EventEmitter,
	retry generation.RetryPolicy,
	logger *slog.Logger,
) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor", ErrNilDependency)
	}
	if completer == nil {
		return nil, fmt.Errorf("%w: completer", ErrNilDependency)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompts", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		store:     store,
		extractor: extractor,
		completer: completer,
		prompts:   prompts,
		emitter:   emitter,
		retry:     retry,
		logger:    logger.With("component", "enrichment_pipeline"),
	}, nil
}

// Process enriches the bookmark and persists the outcome. Failures are stored
// as aiStatus failed with a localized message. A job interrupted by ctx
// leaves the bookmark processing for recovery.
func (p *Pipeline) Process(ctx context.Context, id string) {
	logger := p.logger.With("bookmark_id", id)

	prefs, err := p.store.Preferences(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load preferences, using defaults", "error", err)
		prefs = domain.DefaultPreferences()
	}
	locale := prefs.Locale()

	err = p.enrich(ctx, id, prefs, logger)
	if err == nil {
		return
	}

	switch {
	case ctx.Err() != nil:
		logger.WarnContext(ctx, "enrichment interrupted", "error", err)
		return
	case store.IsNotFoundError(err):
		logger.InfoContext(ctx, "bookmark removed during enrichment")
		return
	}

	msg := FailureMessage(err, locale)
	logger.ErrorContext(ctx, "enrichment failed", "error", err, "message", msg)

	_, updateErr := p.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		return b.SetAIStatus(domain.AIStatusFailed, msg)
	})
	if updateErr != nil && !store.IsNotFoundError(updateErr) {
		logger.ErrorContext(ctx, "failed to record enrichment failure", "error", updateErr)
	}
	recordOutcome(ctx, string(domain.AIStatusFailed), false)
}

func (p *Pipeline) enrich(ctx context.Context, id string, prefs domain.Preferences, logger *slog.Logger) error {
	item, err := p.store.GetBookmark(ctx, id)
	if err != nil {
		return err
	}
	if !item.IsBookmark() {
		return ErrNotBookmark
	}

	cfg, err := p.store.AIConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading AI config: %w", err)
	}
	if !cfg.IsConfigured() {
		return ErrMissingAPIKey
	}

	content, err := p.content(ctx, item, logger)
	if err != nil {
		return err
	}

	registry, err := p.store.Categories(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load categories", "error", err)
	}

	prompt, err := p.prompts.Analysis(generation.AnalysisInput{
		Provider:   cfg.Provider,
		Depth:      prefs.AnalysisDepth,
		Locale:     prefs.Locale(),
		Title:      item.Title,
		URL:        item.URL,
		Content:    content,
		Categories: registry.Ranked(promptCategoryLimit),
	})
	if err != nil {
		return err
	}

	text, err := generation.CompleteWithRetry(ctx, p.completer, generation.Request{
		Config: *cfg,
		Prompt: prompt,
	}, p.retry, logger)
	if err != nil {
		return err
	}

	analysis := generation.ParseAnalysis(text, content)
	switch {
	case analysis.Defaulted:
		logger.WarnContext(ctx, "AI response had no valid JSON, using defaults", "response_length", len(text))
	case len(analysis.Missing) > 0:
		logger.WarnContext(ctx, "AI response had missing or invalid fields", "fields", analysis.Missing)
	}
	analysis.ApplyFallbacks(prefs.Locale())

	if created, err := p.store.RecordCategories(ctx, categoryNames(analysis, prefs.Locale())...); err != nil {
		logger.WarnContext(ctx, "failed to record categories", "error", err)
	} else if len(created) > 0 {
		logger.InfoContext(ctx, "new smart categories", "categories", created)
	}

	updated, err := p.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		analysis.Apply(b)
		return b.SetAIStatus(domain.AIStatusCompleted, "")
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "enrichment completed",
		"category", analysis.Category,
		"read_time", analysis.EstimatedReadTime,
		"defaulted", analysis.Defaulted,
	)
	recordOutcome(ctx, string(domain.AIStatusCompleted), analysis.Defaulted)

	if err := events.Emit(ctx, p.emitter, events.TypeBookmarkChanged, events.BookmarkChange{
		Kind:   events.ChangeUpdate,
		Item:   updated,
		Fields: domain.AIFields,
	}); err != nil {
		logger.WarnContext(ctx, "bookmark change handler failed", "error", err)
	}
	return nil
}

// content returns extracted page text, or the title and URL fallback when
// extraction yields less than MinContentLength characters.
func (p *Pipeline) content(ctx context.Context, item *domain.Bookmark, logger *slog.Logger) (string, error) {
	text, err := p.extractor.Extract(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.WarnContext(ctx, "content extraction failed, using fallback", "error", err)
	}

	text = strings.TrimSpace(text)
	if len([]rune(text)) >= MinContentLength {
		return text, nil
	}

	fallback := FallbackContent(item.Title, item.URL)
	if fallback == "" {
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrContentExtraction, err)
		}
		return "", ErrContentExtraction
	}
	logger.DebugContext(ctx, "using title and URL as content", "extracted_length", len(text))
	return fallback, nil
}

// categoryNames lists the registry entries an analysis contributes: its
// smart categories, or its category when it has none.
func categoryNames(a generation.Analysis, locale domain.Locale) []string {
	if len(a.SmartCategories) > 0 {
		return a.SmartCategories
	}
	if a.Category == "" || a.Category == locale.Message(domain.MsgUncategorized) {
		return nil
	}
	return []string{a.Category}
}

// IsConfigError reports whether err is a configuration failure that retrying
// cannot fix.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingAPIKey) || errors.Is(err, generation.ErrInvalidConfig)
}
