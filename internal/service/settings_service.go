package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/smartmark/internal/domain"
)

// SettingsService manages provider configuration, preferences and the
// remote account token.
type SettingsService interface {
	SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error
	// AIConfig returns the configuration with the API key masked.
	AIConfig(ctx context.Context) (domain.AIConfig, error)
	SavePreferences(ctx context.Context, prefs domain.Preferences) error
	Preferences(ctx context.Context) (domain.Preferences, error)
	// SetAuthToken signs in to the remote account; an empty token signs out.
	SetAuthToken(ctx context.Context, token string) error
}

type settingsServiceImpl struct {
	store  SettingsStore
	logger *slog.Logger
}

var _ SettingsService = (*settingsServiceImpl)(nil)

// NewSettingsService creates a SettingsService.
func NewSettingsService(s SettingsStore, logger *slog.Logger) (SettingsService, error) {
	if s == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "settings store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsServiceImpl{
		store:  s,
		logger: logger.With("component", "settings_service"),
	}, nil
}

func (s *settingsServiceImpl) SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	if err := s.store.SaveAIConfig(ctx, cfg); err != nil {
		return NewServiceError("save_ai_config", "failed to save AI config", err)
	}
	s.logger.InfoContext(ctx, "AI provider configured",
		"provider", cfg.Provider,
		"model", cfg.ModelOrDefault(),
		"custom_base_url", cfg.BaseURL != "",
	)
	return nil
}

func (s *settingsServiceImpl) AIConfig(ctx context.Context) (domain.AIConfig, error) {
	cfg, err := s.store.AIConfig(ctx)
	if err != nil {
		return domain.AIConfig{}, NewServiceError("get_ai_config", "failed to load AI config", err)
	}
	if cfg == nil {
		return domain.AIConfig{}, nil
	}
	return cfg.Masked(), nil
}

func (s *settingsServiceImpl) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return NewServiceError("save_preferences", "failed to save preferences", err)
	}
	return nil
}

func (s *settingsServiceImpl) Preferences(ctx context.Context) (domain.Preferences, error) {
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return domain.DefaultPreferences(), NewServiceError("get_preferences", "failed to load preferences", err)
	}
	return prefs, nil
}

func (s *settingsServiceImpl) SetAuthToken(ctx context.Context, token string) error {
	if err := s.store.SetAuthToken(ctx, token); err != nil {
		return NewServiceError("set_auth_token", "failed to store auth token", err)
	}
	if token == "" {
		s.logger.InfoContext(ctx, "signed out of remote sync")
	} else {
		s.logger.InfoContext(ctx, "signed in to remote sync")
	}
	return nil
}
