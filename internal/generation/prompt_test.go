package generation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisPrompt(t *testing.T) {
	t.Parallel()

	prompts, err := NewPrompts("")
	require.NoError(t, err)

	in := AnalysisInput{
		Provider:   domain.ProviderDeepSeek,
		Depth:      domain.DepthBasic,
		Locale:     domain.LocaleEnglish,
		Title:      "Go Memory Model",
		URL:        "https://go.dev/ref/mem",
		Content:    "happens before",
		Categories: []string{"Programming", "Databases"},
	}

	t.Run("basic depth", func(t *testing.T) {
		prompt, err := prompts.Analysis(in)
		require.NoError(t, err)

		assert.Contains(t, prompt, "Go Memory Model")
		assert.Contains(t, prompt, "happens before")
		assert.Contains(t, prompt, `"estimatedReadTime"`)
		assert.Contains(t, prompt, "Programming, Databases")
		assert.Contains(t, prompt, "Do not wrap it in markdown code fences")
		assert.NotContains(t, prompt, `"contentType"`)
		assert.NotContains(t, prompt, `"sentiment"`)
	})

	t.Run("standard depth", func(t *testing.T) {
		in := in
		in.Depth = domain.DepthStandard
		prompt, err := prompts.Analysis(in)
		require.NoError(t, err)

		assert.Contains(t, prompt, `"contentType": one of article, tutorial`)
		assert.Contains(t, prompt, `"readingLevel": one of beginner, intermediate, advanced`)
		assert.Contains(t, prompt, `"smartCategories"`)
		assert.NotContains(t, prompt, `"keyPoints"`)
	})

	t.Run("detailed depth in chinese for openai", func(t *testing.T) {
		in := in
		in.Depth = domain.DepthDetailed
		in.Locale = domain.LocaleChinese
		in.Provider = domain.ProviderOpenAI
		in.Categories = nil
		prompt, err := prompts.Analysis(in)
		require.NoError(t, err)

		assert.Contains(t, prompt, `"keyPoints"`)
		assert.Contains(t, prompt, `"sentiment": one of positive, neutral, negative`)
		assert.Contains(t, prompt, "Simplified Chinese")
		assert.NotContains(t, prompt, "markdown code fences")
		assert.NotContains(t, prompt, "Existing categories")
	})
}

func TestPromptOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "analysis.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Summarize {{.Title}} using {{join .Sentiments}}"), 0o600))

	prompts, err := NewPrompts(path)
	require.NoError(t, err)

	prompt, err := prompts.Analysis(AnalysisInput{Title: "X"})
	require.NoError(t, err)
	assert.Equal(t, "Summarize X using positive, neutral, negative", prompt)

	_, err = NewPrompts(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAskAndQuizPrompts(t *testing.T) {
	t.Parallel()

	prompts, err := NewPrompts("")
	require.NoError(t, err)

	ask, err := prompts.Ask(QuestionInput{
		Locale:   domain.LocaleEnglish,
		Title:    "Page",
		Content:  "The sky is blue.",
		Question: "What colour is the sky?",
	})
	require.NoError(t, err)
	assert.Contains(t, ask, "The sky is blue.")
	assert.Contains(t, ask, "What colour is the sky?")
	assert.Contains(t, ask, domain.LocaleEnglish.Message(domain.MsgUngrounded))

	quiz, err := prompts.Quiz(QuizInput{Locale: domain.LocaleChinese, Title: "Page", Content: "text"})
	require.NoError(t, err)
	assert.Contains(t, quiz, "Write 5 questions at most")
	assert.Contains(t, quiz, `{"quiz": []}`)
	assert.Contains(t, quiz, "Simplified Chinese")
}
