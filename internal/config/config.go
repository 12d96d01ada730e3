package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Store   StoreConfig   `mapstructure:"store" validate:"required"`
	Session SessionConfig `mapstructure:"session" validate:"required"`
	Queue   QueueConfig   `mapstructure:"queue" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" validate:"required"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

// ServerConfig contains the local message API listener settings.
type ServerConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// APIToken, when set, must accompany every message API request as a
	// bearer token.
	APIToken string `mapstructure:"api_token"`
}

// StoreConfig selects the persistent store backend.
type StoreConfig struct {
	Backend     string `mapstructure:"backend" validate:"required,oneof=memory badger postgres"`
	Path        string `mapstructure:"path" validate:"required_if=Backend badger"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Backend postgres,omitempty,url"`
}

// SessionConfig selects where tab bindings live and how long they last.
type SessionConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis,omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	TTLMinutes    int    `mapstructure:"ttl_minutes" validate:"gt=0"`
}

// TTL returns the tab binding lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// QueueConfig tunes the enrichment worker pool.
type QueueConfig struct {
	ConcurrentLimit           int `mapstructure:"concurrent_limit" validate:"gt=0,lte=32"`
	CooldownMS                int `mapstructure:"cooldown_ms" validate:"gte=0"`
	StuckAgeMinutes           int `mapstructure:"stuck_age_minutes" validate:"gte=0"`
	StuckCheckIntervalMinutes int `mapstructure:"stuck_check_interval_minutes" validate:"gte=0"`
}

// Cooldown returns the pause between drain passes.
func (c QueueConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

// StuckAge returns how long an item may stay processing before it is requeued.
func (c QueueConfig) StuckAge() time.Duration {
	return time.Duration(c.StuckAgeMinutes) * time.Minute
}

// StuckCheckInterval returns the stuck monitor period; zero disables it.
func (c QueueConfig) StuckCheckInterval() time.Duration {
	return time.Duration(c.StuckCheckIntervalMinutes) * time.Minute
}

// LLMConfig contains the AI call and content extraction settings.
// Provider credentials are user data and live in the store.
type LLMConfig struct {
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	MaxRetries            int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds     int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	PromptTemplatePath    string `mapstructure:"prompt_template_path" validate:"omitempty,file"`
	ExtractMaxChars       int    `mapstructure:"extract_max_chars" validate:"gt=0"`
	FetchTimeoutSeconds   int    `mapstructure:"fetch_timeout_seconds" validate:"gt=0"`
}

// RequestTimeout returns the per-call AI deadline.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryDelay returns the first backoff interval.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// FetchTimeout returns the page download deadline.
func (c LLMConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// SyncConfig points at the remote account service. An empty BaseURL keeps
// the daemon purely local.
type SyncConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// Timeout returns the per-request deadline for sync calls.
func (c SyncConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
