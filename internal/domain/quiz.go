package domain

// QuizType is the answer format of a quiz question.
type QuizType string

// Supported quiz question types
const (
	QuizMultipleChoice QuizType = "multiple-choice"
	QuizShortAnswer    QuizType = "short-answer"
)

// QuizQuestion is one question generated from a bookmark's content.
type QuizQuestion struct {
	Question string   `json:"question"`
	Type     QuizType `json:"type"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}
