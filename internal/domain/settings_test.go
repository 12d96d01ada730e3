package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil and empty are unconfigured", func(t *testing.T) {
		var nilConfig *AIConfig
		assert.False(t, nilConfig.IsConfigured())
		assert.False(t, (&AIConfig{Provider: ProviderOpenAI}).IsConfigured())
		assert.False(t, (&AIConfig{APIKey: "sk-123"}).IsConfigured())
		assert.False(t, (&AIConfig{Provider: ProviderOpenAI, APIKey: "   "}).IsConfigured())
		assert.True(t, (&AIConfig{Provider: ProviderOpenAI, APIKey: "sk-123"}).IsConfigured())
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := &AIConfig{Provider: ProviderDeepSeek}
		assert.Equal(t, "deepseek-chat", cfg.ModelOrDefault())
		assert.Equal(t, DefaultMaxTokens, cfg.MaxTokensOrDefault())

		cfg.Model = "deepseek-reasoner"
		cfg.MaxTokens = 200
		assert.Equal(t, "deepseek-reasoner", cfg.ModelOrDefault())
		assert.Equal(t, 200, cfg.MaxTokensOrDefault())
	})

	t.Run("validate provider", func(t *testing.T) {
		require.NoError(t, (&AIConfig{Provider: ProviderGemini}).Validate())

		err := (&AIConfig{Provider: "anthropic"}).Validate()
		assert.ErrorIs(t, err, ErrInvalidProvider)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("masked key", func(t *testing.T) {
		masked := AIConfig{APIKey: "sk-abcdefghijkl"}.Masked()
		assert.Equal(t, "sk-a*******ijkl", masked.APIKey)
		assert.Equal(t, "****", AIConfig{APIKey: "short"}.Masked().APIKey)
		assert.Empty(t, AIConfig{}.Masked().APIKey)
	})
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	t.Run("normalize", func(t *testing.T) {
		p := Preferences{AnalysisDepth: "deep"}.Normalize()
		assert.Equal(t, DepthStandard, p.AnalysisDepth)
		assert.Equal(t, "en", p.Language)
		assert.Equal(t, DefaultPreferences(), p)
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, Preferences{}.Validate())
		assert.NoError(t, Preferences{AnalysisDepth: DepthDetailed}.Validate())
		assert.ErrorIs(t, Preferences{AnalysisDepth: "deep"}.Validate(), ErrInvalidDepth)
	})

	t.Run("locale", func(t *testing.T) {
		tests := map[string]Locale{
			"zh":    LocaleChinese,
			"zh-CN": LocaleChinese,
			"en":    LocaleEnglish,
			"en-GB": LocaleEnglish,
			"fr":    LocaleEnglish,
			"":      LocaleEnglish,
		}
		for lang, want := range tests {
			assert.Equal(t, want, Preferences{Language: lang}.Locale(), lang)
		}
	})
}

func TestLocaleMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Uncategorized", LocaleEnglish.Message(MsgUncategorized))
	assert.Equal(t, "未分类", LocaleChinese.Message(MsgUncategorized))
	assert.Equal(t, LocaleEnglish.Message(MsgNoSummary), Locale("de").Message(MsgNoSummary))
}

func TestCategoryRegistry(t *testing.T) {
	t.Parallel()

	r := CategoryRegistry{}
	created := r.Record("Go", "Databases", " ", "Go")
	assert.Equal(t, []string{"Go", "Databases"}, created)
	assert.Equal(t, 2, r["Go"])
	assert.Equal(t, 1, r["Databases"])

	created = r.Record("Databases", "AI")
	assert.Equal(t, []string{"AI"}, created)

	assert.Equal(t, []string{"Databases", "Go", "AI"}, r.Ranked(0))
	assert.Equal(t, []string{"Databases", "Go"}, r.Ranked(2))
	assert.Empty(t, CategoryRegistry{}.Ranked(5))
}
