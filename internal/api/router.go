package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/smartmark/internal/api/middleware"
	"github.com/phrazzld/smartmark/internal/api/shared"
)

// RouterConfig holds what NewRouter mounts.
type RouterConfig struct {
	Messages *MessageHandler
	Changes  *ChangesHandler
	Auth     *middleware.TokenAuth
	// Health reports readiness; nil always reports healthy.
	Health func() error
	// RequestTimeout bounds message handling. Zero disables it. The change
	// stream is never bounded.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter creates the HTTP router for the message API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	auth := cfg.Auth
	if auth == nil {
		auth = middleware.NewTokenAuth("")
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewTraceMiddleware(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Unavailable", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("Failed to write health check response", "error", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		if cfg.Messages != nil {
			r.Group(func(r chi.Router) {
				if cfg.RequestTimeout > 0 {
					r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
				}
				r.Post("/messages", cfg.Messages.HandleMessage)
			})
		}
		if cfg.Changes != nil {
			r.Get("/changes", cfg.Changes.StreamChanges)
		}
	})

	return r
}
