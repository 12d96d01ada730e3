package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/smartmark/internal/api"
	"github.com/phrazzld/smartmark/internal/api/middleware"
	"github.com/phrazzld/smartmark/internal/config"
	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/platform/extractor"
	"github.com/phrazzld/smartmark/internal/platform/gemini"
	"github.com/phrazzld/smartmark/internal/platform/openai"
	"github.com/phrazzld/smartmark/internal/reconcile"
	"github.com/phrazzld/smartmark/internal/service"
	"github.com/phrazzld/smartmark/internal/store"
	"github.com/phrazzld/smartmark/internal/task"
)

const healthTimeout = 2 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is set only for the postgres backend and is owned by store.
	db       *sql.DB
	store    *store.Store
	sessions store.SessionStore

	eventEmitter *events.InMemoryEventEmitter
	queue        *task.Queue
	reconciler   *reconcile.Reconciler

	bookmarkService  service.BookmarkService
	assistantService service.AssistantService
	settingsService  service.SettingsService

	changes *api.ChangesHandler
	router  http.Handler
}

// options are command-line switches that shape the application.
type options struct {
	autoMigrate bool
}

// newApplication creates a new application instance with all dependencies
// initialized. Background work does not start until Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts options) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}
	initialized := false
	defer func() {
		if !initialized {
			app.cleanup()
		}
	}()

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	kv, db, err := openKV(ctx, cfg.Store, opts.autoMigrate, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	app.db = db
	if app.store, err = store.New(kv, app.eventEmitter, logger); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if app.sessions, err = openSessions(ctx, cfg.Session, logger); err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	completer := newCompleter(logger)
	retry := generation.RetryPolicy{
		MaxRetries: cfg.LLM.MaxRetries,
		BaseDelay:  cfg.LLM.RetryDelay(),
		Timeout:    cfg.LLM.RequestTimeout(),
	}
	prompts, err := generation.NewPrompts(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	pages := extractor.New(extractor.Options{
		Timeout:  cfg.LLM.FetchTimeout(),
		MaxChars: cfg.LLM.ExtractMaxChars,
	}, logger)

	pipeline, err := task.NewPipeline(app.store, pages, completer, prompts, app.eventEmitter, retry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment pipeline: %w", err)
	}
	app.queue, err = task.NewQueue(app.store, pipeline, task.QueueConfig{
		ConcurrentLimit:    cfg.Queue.ConcurrentLimit,
		Cooldown:           cfg.Queue.Cooldown(),
		StuckAge:           cfg.Queue.StuckAge(),
		StuckCheckInterval: cfg.Queue.StuckCheckInterval(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	app.eventEmitter.RegisterHandler(task.NewEnrichmentEventHandler(app.queue, logger))

	if cfg.Sync.BaseURL != "" {
		app.reconciler, err = reconcile.New(app.store, reconcile.Options{
			BaseURL: cfg.Sync.BaseURL,
			Timeout: cfg.Sync.Timeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync reconciler: %w", err)
		}
		app.eventEmitter.RegisterHandler(app.reconciler)
		logger.Info("remote sync enabled", "base_url", cfg.Sync.BaseURL)
	} else {
		logger.Info("remote sync disabled, no sync.base_url configured")
	}

	app.bookmarkService, err = service.NewBookmarkService(
		app.store, app.sessions, app.queue, pages, app.eventEmitter, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookmark service: %w", err)
	}
	app.assistantService, err = service.NewAssistantService(
		app.store, app.sessions, pages, completer, prompts, retry, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant service: %w", err)
	}
	app.settingsService, err = service.NewSettingsService(app.store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings service: %w", err)
	}

	messages, err := api.NewMessageHandler(app.bookmarkService, app.assistantService, app.settingsService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message handler: %w", err)
	}
	app.changes = api.NewChangesHandler(app.eventEmitter, 0, logger)
	app.router = api.NewRouter(api.RouterConfig{
		Messages:       messages,
		Changes:        app.changes,
		Auth:           middleware.NewTokenAuth(cfg.Server.APIToken),
		Health:         app.health,
		RequestTimeout: requestTimeout(cfg.LLM),
		Logger:         logger,
	})

	logger.Info("Application initialized successfully",
		"store_backend", cfg.Store.Backend,
		"session_backend", cfg.Session.Backend,
		"api_token_required", cfg.Server.APIToken != "")
	initialized = true
	return app, nil
}

// newCompleter routes each provider to its client. DeepSeek and OpenRouter
// speak the OpenAI chat completions protocol.
func newCompleter(logger *slog.Logger) generation.Router {
	chat := openai.NewClient(openai.Options{
		Referer: "https://github.com/phrazzld/smartmark",
		Title:   "SmartMark",
	}, logger)
	return generation.Router{
		domain.ProviderOpenAI:     chat,
		domain.ProviderDeepSeek:   chat,
		domain.ProviderOpenRouter: chat,
		domain.ProviderGemini:     gemini.NewClient(gemini.Options{}, logger),
	}
}

// requestTimeout bounds an ask or quiz request: every attempt plus backoff,
// with a minute of slack for page fetching.
func requestTimeout(cfg config.LLMConfig) time.Duration {
	total := time.Minute
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		total += cfg.RequestTimeout() + cfg.RetryDelay()<<attempt
	}
	return total
}

func (app *application) health() error {
	if app.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return app.db.PingContext(ctx)
}

// Run starts background work and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start task queue: %w", err)
	}

	if err := app.startHTTPServer(ctx, app.router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Running jobs
// are cancelled first so they cannot write to a closed store; pending sync
// requests are allowed to finish.
func (app *application) cleanup() {
	if app.changes != nil {
		app.changes.Close()
	}
	if app.queue != nil {
		app.queue.Stop()
	}
	if app.reconciler != nil {
		app.reconciler.Wait()
	}
	if app.sessions != nil {
		if err := app.sessions.Close(); err != nil {
			app.logger.Error("Error closing session store", "error", err)
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("Error closing store", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
