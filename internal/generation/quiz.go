package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
)

type rawQuiz struct {
	Quiz []struct {
		Question string   `json:"question"`
		Options  flexList `json:"options"`
		Answer   string   `json:"answer"`
	} `json:"quiz"`
}

// ParseQuiz extracts quiz questions from a model response. Questions without
// text or answer are dropped. The type follows the options: two or more make
// a multiple-choice question, otherwise it is short-answer. An empty quiz is not an error.
func ParseQuiz(text string) ([]domain.QuizQuestion, error) {
	object, ok := ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in quiz response", ErrInvalidResponse)
	}

	var raw rawQuiz
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return nil, fmt.Errorf("%w: quiz: %w", ErrInvalidResponse, err)
	}

	questions := make([]domain.QuizQuestion, 0, len(raw.Quiz))
	for _, q := range raw.Quiz {
		question := strings.TrimSpace(q.Question)
		answer := strings.TrimSpace(q.Answer)
		if question == "" || answer == "" {
			continue
		}

		options := cleanList(q.Options, 6, false)
		kind := domain.QuizMultipleChoice
		if len(options) < 2 {
			kind = domain.QuizShortAnswer
			options = nil
		}

		questions = append(questions, domain.QuizQuestion{
			Question: question,
			Type:     kind,
			Options:  options,
			Answer:   answer,
		})
	}
	return questions, nil
}

// ParseAnswer cleans a free-text answer. An empty answer is replaced by the
// localized refusal.
func ParseAnswer(text string, locale domain.Locale) string {
	answer := strings.TrimSpace(text)
	if answer == "" {
		return locale.Message(domain.MsgUngrounded)
	}
	return answer
}
