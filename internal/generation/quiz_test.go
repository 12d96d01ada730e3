package generation

import (
	"testing"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuiz(t *testing.T) {
	t.Parallel()

	t.Run("empty quiz", func(t *testing.T) {
		questions, err := ParseQuiz(`{"quiz": []}`)
		require.NoError(t, err)
		assert.Empty(t, questions)
	})

	t.Run("questions are validated", func(t *testing.T) {
		questions, err := ParseQuiz("```json\n" + `{"quiz": [
			{"question": "Which?", "type": "multiple-choice", "options": ["a", "b", "c"], "answer": "b"},
			{"question": "Why?", "type": "short-answer", "options": [], "answer": "because"},
			{"question": "Lonely?", "type": "multiple-choice", "options": ["only"], "answer": "only"},
			{"question": "", "answer": "x"},
			{"question": "No answer?", "answer": " "}
		]}` + "\n```")
		require.NoError(t, err)

		require.Len(t, questions, 3)
		assert.Equal(t, domain.QuizQuestion{
			Question: "Which?", Type: domain.QuizMultipleChoice, Options: []string{"a", "b", "c"}, Answer: "b",
		}, questions[0])
		assert.Equal(t, domain.QuizShortAnswer, questions[1].Type)
		assert.Nil(t, questions[1].Options)
		assert.Equal(t, domain.QuizShortAnswer, questions[2].Type)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, err := ParseQuiz("no quiz today")
		assert.ErrorIs(t, err, ErrInvalidResponse)

		_, err = ParseQuiz(`{"quiz": "nope"}`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestParseAnswer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Blue.", ParseAnswer("  Blue.\n", domain.LocaleEnglish))
	assert.Equal(t, domain.LocaleChinese.Message(domain.MsgUngrounded), ParseAnswer("", domain.LocaleChinese))
}
