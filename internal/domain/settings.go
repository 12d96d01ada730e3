package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Provider identifies an LLM vendor.
type Provider string

// Supported providers
const (
	ProviderOpenAI     Provider = "openai"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// DefaultMaxTokens bounds completion length when the user has not chosen one.
const DefaultMaxTokens = 1000

var defaultModels = map[Provider]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderDeepSeek:   "deepseek-chat",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderGemini:     "gemini-2.0-flash",
}

// IsValid reports whether the provider is supported.
func (p Provider) IsValid() bool {
	_, ok := defaultModels[p]
	return ok
}

// AIConfig is the user's LLM provider configuration.
type AIConfig struct {
	Provider  Provider `json:"provider"`
	APIKey    string   `json:"apiKey"`
	Model     string   `json:"model,omitempty"`
	MaxTokens int      `json:"maxTokens,omitempty"`
	BaseURL   string   `json:"baseUrl,omitempty"`
}

// IsConfigured reports whether a provider and key are present.
func (c *AIConfig) IsConfigured() bool {
	return c != nil && c.Provider != "" && strings.TrimSpace(c.APIKey) != ""
}

// Validate checks the provider against the supported list.
func (c *AIConfig) Validate() error {
	if !c.Provider.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidProvider, c.Provider)
	}
	return nil
}

// ModelOrDefault returns the configured model or the provider's default.
func (c *AIConfig) ModelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// MaxTokensOrDefault returns the configured token limit or DefaultMaxTokens.
func (c *AIConfig) MaxTokensOrDefault() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxTokens
}

// Masked returns a copy safe to hand back to UI surfaces.
func (c AIConfig) Masked() AIConfig {
	if len(c.APIKey) > 8 {
		c.APIKey = c.APIKey[:4] + strings.Repeat("*", len(c.APIKey)-8) + c.APIKey[len(c.APIKey)-4:]
	} else if c.APIKey != "" {
		c.APIKey = "****"
	}
	return c
}

// AnalysisDepth controls how many enrichment fields are requested.
type AnalysisDepth string

// Supported analysis depths
const (
	DepthBasic    AnalysisDepth = "basic"
	DepthStandard AnalysisDepth = "standard"
	DepthDetailed AnalysisDepth = "detailed"
)

// IsValid reports whether the depth is supported.
func (d AnalysisDepth) IsValid() bool {
	switch d {
	case DepthBasic, DepthStandard, DepthDetailed:
		return true
	default:
		return false
	}
}

// Locale selects the language of user-facing fallback strings.
type Locale string

// Supported locales
const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh"
)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
})

// Preferences holds user-level settings that affect enrichment.
type Preferences struct {
	AnalysisDepth AnalysisDepth `json:"analysisDepth"`
	Language      string        `json:"language"`
}

// DefaultPreferences returns standard depth in English.
func DefaultPreferences() Preferences {
	return Preferences{
		AnalysisDepth: DepthStandard,
		Language:      string(LocaleEnglish),
	}
}

// Validate rejects an analysis depth outside the supported set.
// An empty depth is allowed and normalizes to standard.
func (p Preferences) Validate() error {
	if p.AnalysisDepth != "" && !p.AnalysisDepth.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidDepth, p.AnalysisDepth)
	}
	return nil
}

// Normalize fills unset or unsupported values with defaults.
func (p Preferences) Normalize() Preferences {
	if !p.AnalysisDepth.IsValid() {
		p.AnalysisDepth = DepthStandard
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = string(LocaleEnglish)
	}
	return p
}

// Locale matches the language preference against the supported locales.
func (p Preferences) Locale() Locale {
	_, index := language.MatchStrings(localeMatcher, p.Language)
	if index == 1 {
		return LocaleChinese
	}
	return LocaleEnglish
}
