package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SMARTMARK"

var defaults = map[string]interface{}{
	"server.host":                        "127.0.0.1",
	"server.port":                        8787,
	"server.log_level":                   "info",
	"server.api_token":                   "",
	"store.backend":                      "badger",
	"store.path":                         "./data/smartmark",
	"store.database_url":                 "",
	"session.backend":                    "memory",
	"session.redis_addr":                 "",
	"session.redis_password":             "",
	"session.redis_db":                   0,
	"session.ttl_minutes":                720,
	"queue.concurrent_limit":             3,
	"queue.cooldown_ms":                  1000,
	"queue.stuck_age_minutes":            10,
	"queue.stuck_check_interval_minutes": 5,
	"llm.request_timeout_seconds":        60,
	"llm.max_retries":                    2,
	"llm.retry_delay_seconds":            2,
	"llm.prompt_template_path":           "",
	"llm.extract_max_chars":              8000,
	"llm.fetch_timeout_seconds":          15,
	"sync.base_url":                      "",
	"sync.timeout_seconds":               15,
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables take precedence over values
// from config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
