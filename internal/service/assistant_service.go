package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
)

// PageRef names the bookmark a question is about, directly or through the
// tab showing it. ID wins when both are set.
type PageRef struct {
	ID    string `json:"id,omitempty"`
	TabID string `json:"tabId,omitempty"`
}

// AssistantService answers questions about saved pages.
type AssistantService interface {
	// Ask answers question from the page content only. When the content
	// does not answer it, the localized refusal is returned.
	Ask(ctx context.Context, ref PageRef, question string) (string, error)

	// Quiz generates review questions from the page. The result is empty
	// when the content is too thin for questions.
	Quiz(ctx context.Context, ref PageRef) ([]domain.QuizQuestion, error)
}

// AssistantStore is what the assistant reads.
type AssistantStore interface {
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	AIConfig(ctx context.Context) (*domain.AIConfig, error)
	Preferences(ctx context.Context) (domain.Preferences, error)
}

type assistantServiceImpl struct {
	store     AssistantStore
	sessions  store.SessionStore
	fetcher   PageFetcher
	completer generation.Completer
	prompts   *generation.Prompts
	retry     generation.RetryPolicy
	logger    *slog.Logger
}

var _ AssistantService = (*assistantServiceImpl)(nil)

// NewAssistantService creates an AssistantService. fetcher may be nil, in
// which case answers are grounded on the stored summary.
func NewAssistantService(
	s AssistantStore,
	sessions store.SessionStore,
	fetcher PageFetcher,
	completer generation.Completer,
	prompts *generation.Prompts,
	retry generation.RetryPolicy,
	logger *slog.Logger,
) (AssistantService, error) {
	switch {
	case s == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "store cannot be nil"}
	case sessions == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "session store cannot be nil"}
	case completer == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "completer cannot be nil"}
	case prompts == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "prompts cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &assistantServiceImpl{
		store:     s,
		sessions:  sessions,
		fetcher:   fetcher,
		completer: completer,
		prompts:   prompts,
		retry:     retry,
		logger:    logger.With("component", "assistant_service"),
	}, nil
}

// grounding is everything a prompt needs about the referenced page.
type grounding struct {
	bookmark *domain.Bookmark
	content  string
	config   domain.AIConfig
	locale   domain.Locale
}

func (s *assistantServiceImpl) Ask(ctx context.Context, ref PageRef, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	g, err := s.ground(ctx, "ask", ref)
	if err != nil {
		return "", err
	}

	prompt, err := s.prompts.Ask(generation.QuestionInput{
		Locale:   g.locale,
		Title:    g.bookmark.Title,
		Content:  g.content,
		Question: question,
	})
	if err != nil {
		return "", NewServiceError("ask", "failed to render prompt", err)
	}

	text, err := generation.CompleteWithRetry(ctx, s.completer, generation.Request{
		Config: g.config,
		Prompt: prompt,
	}, s.retry, s.logger)
	if err != nil {
		return "", NewServiceError("ask", "AI completion failed", err)
	}

	return generation.ParseAnswer(text, g.locale), nil
}

func (s *assistantServiceImpl) Quiz(ctx context.Context, ref PageRef) ([]domain.QuizQuestion, error) {
	g, err := s.ground(ctx, "quiz", ref)
	if err != nil {
		return nil, err
	}

	prompt, err := s.prompts.Quiz(generation.QuizInput{
		Locale:  g.locale,
		Title:   g.bookmark.Title,
		Content: g.content,
		Count:   generation.DefaultQuizQuestions,
	})
	if err != nil {
		return nil, NewServiceError("quiz", "failed to render prompt", err)
	}

	text, err := generation.CompleteWithRetry(ctx, s.completer, generation.Request{
		Config: g.config,
		Prompt: prompt,
	}, s.retry, s.logger)
	if err != nil {
		return nil, NewServiceError("quiz", "AI completion failed", err)
	}

	questions, err := generation.ParseQuiz(text)
	if err != nil {
		s.logger.WarnContext(ctx, "unusable quiz response", "error", err, "bookmark_id", g.bookmark.ID)
		return nil, NewServiceError("quiz", "failed to parse quiz", err)
	}
	if questions == nil {
		questions = []domain.QuizQuestion{}
	}
	return questions, nil
}

func (s *assistantServiceImpl) ground(ctx context.Context, op string, ref PageRef) (grounding, error) {
	id := ref.ID
	if id == "" {
		if ref.TabID == "" {
			return grounding{}, ErrMissingReference
		}
		bound, err := s.sessions.Lookup(ctx, ref.TabID)
		if err != nil {
			return grounding{}, NewServiceError(op, "failed to resolve tab", err)
		}
		id = bound
	}

	b, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return grounding{}, NewServiceError(op, "failed to load bookmark", err)
	}
	if !b.IsBookmark() {
		return grounding{}, ErrNotBookmark
	}

	cfg, err := s.store.AIConfig(ctx)
	if err != nil {
		return grounding{}, NewServiceError(op, "failed to load AI config", err)
	}
	if !cfg.IsConfigured() {
		return grounding{}, task.ErrMissingAPIKey
	}

	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		prefs = domain.DefaultPreferences()
	}

	return grounding{
		bookmark: b,
		content:  s.content(ctx, b),
		config:   *cfg,
		locale:   prefs.Locale(),
	}, nil
}

// content prefers live page text, then the stored enrichment, then the title
// and URL.
func (s *assistantServiceImpl) content(ctx context.Context, b *domain.Bookmark) string {
	if s.fetcher != nil {
		page, err := s.fetcher.Fetch(ctx, b.URL)
		switch {
		case err == nil && len([]rune(strings.TrimSpace(page.Text))) >= task.MinContentLength:
			return page.Text
		case err != nil && !errors.Is(err, context.Canceled):
			s.logger.DebugContext(ctx, "page fetch failed, using stored content", "bookmark_id", b.ID, "error", err)
		}
	}

	var parts []string
	if b.Summary != "" {
		parts = append(parts, b.Summary)
	}
	parts = append(parts, b.KeyPoints...)
	if b.Notes != "" {
		parts = append(parts, b.Notes)
	}
	if stored := strings.Join(parts, "\n"); len([]rune(stored)) >= task.MinContentLength {
		return stored
	}
	return task.FallbackContent(b.Title, b.URL)
}
