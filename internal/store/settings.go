package store

import (
	"context"

	"github.com/phrazzld/smartmark/internal/domain"
)

// AIConfig returns the saved provider configuration, or nil when none was saved.
func (s *Store) AIConfig(ctx context.Context) (*domain.AIConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg domain.AIConfig
	found, err := s.getJSON(ctx, KeyAIConfig, &cfg)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// SaveAIConfig replaces the provider configuration.
func (s *Store) SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	if err := cfg.Validate(); err != nil {
		return invalid(err)
	}
	return s.locked(ctx, func() ([]string, error) {
		if err := s.putJSON(ctx, KeyAIConfig, cfg); err != nil {
			return nil, err
		}
		return []string{KeyAIConfig}, nil
	})
}

// Preferences returns the saved preferences with defaults filled in.
func (s *Store) Preferences(ctx context.Context) (domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := domain.DefaultPreferences()
	if _, err := s.getJSON(ctx, KeyPreferences, &prefs); err != nil {
		return domain.DefaultPreferences(), err
	}
	return prefs.Normalize(), nil
}

// SavePreferences replaces the preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return invalid(err)
	}
	prefs = prefs.Normalize()
	return s.locked(ctx, func() ([]string, error) {
		if err := s.putJSON(ctx, KeyPreferences, prefs); err != nil {
			return nil, err
		}
		return []string{KeyPreferences}, nil
	})
}

// Categories returns a copy of the smart category registry.
func (s *Store) Categories(ctx context.Context) (domain.CategoryRegistry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry := domain.CategoryRegistry{}
	if _, err := s.getJSON(ctx, KeySmartCategories, &registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// RecordCategories increments the usage of each name and returns the names
// that were new to the registry.
func (s *Store) RecordCategories(ctx context.Context, names ...string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var created []string
	err := s.locked(ctx, func() ([]string, error) {
		registry := domain.CategoryRegistry{}
		if _, err := s.getJSON(ctx, KeySmartCategories, &registry); err != nil {
			return nil, err
		}

		created = registry.Record(names...)

		if err := s.putJSON(ctx, KeySmartCategories, registry); err != nil {
			created = nil
			return nil, err
		}
		return []string{KeySmartCategories}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AuthToken returns the remote account token, or "" when signed out.
func (s *Store) AuthToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var token string
	if _, err := s.getJSON(ctx, KeyAuthToken, &token); err != nil {
		return "", err
	}
	return token, nil
}

// SetAuthToken stores the remote account token. An empty token signs out.
func (s *Store) SetAuthToken(ctx context.Context, token string) error {
	return s.locked(ctx, func() ([]string, error) {
		if token == "" {
			if err := s.kv.Delete(ctx, KeyAuthToken); err != nil {
				return nil, NewStoreError(KeyAuthToken, "delete", "backend delete failed", err)
			}
			return []string{KeyAuthToken}, nil
		}
		if err := s.putJSON(ctx, KeyAuthToken, token); err != nil {
			return nil, err
		}
		return []string{KeyAuthToken}, nil
	})
}
