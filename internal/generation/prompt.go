package generation

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/smartmark/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// DefaultQuizQuestions is the quiz size requested from the model.
const DefaultQuizQuestions = 5

var promptFuncs = template.FuncMap{
	"join": func(values []string) string { return strings.Join(values, ", ") },
}

// AnalysisInput carries what the analysis prompt needs about one bookmark.
type AnalysisInput struct {
	Provider   domain.Provider
	Depth      domain.AnalysisDepth
	Locale     domain.Locale
	Title      string
	URL        string
	Content    string
	Categories []string
}

// QuestionInput is the grounding and question for an ask prompt.
type QuestionInput struct {
	Locale   domain.Locale
	Title    string
	Content  string
	Question string
}

// QuizInput is the grounding for a quiz prompt.
type QuizInput struct {
	Locale  domain.Locale
	Title   string
	Content string
	Count   int
}

// Prompts renders the embedded prompt templates.
type Prompts struct {
	analysis *template.Template
	ask      *template.Template
	quiz     *template.Template
}

// NewPrompts parses the embedded templates. A non-empty analysisPath replaces
// the analysis template with the file at that path.
func NewPrompts(analysisPath string) (*Prompts, error) {
	p := &Prompts{}
	var err error

	if analysisPath != "" {
		data, readErr := os.ReadFile(analysisPath)
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading prompt template %s: %w", ErrInvalidConfig, analysisPath, readErr)
		}
		p.analysis, err = template.New("analysis").Funcs(promptFuncs).Parse(string(data))
	} else {
		p.analysis, err = parseEmbedded("analysis.tmpl")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: analysis template: %w", ErrInvalidConfig, err)
	}

	if p.ask, err = parseEmbedded("ask.tmpl"); err != nil {
		return nil, err
	}
	if p.quiz, err = parseEmbedded("quiz.tmpl"); err != nil {
		return nil, err
	}
	return p, nil
}

func parseEmbedded(name string) (*template.Template, error) {
	t, err := template.New(name).Funcs(promptFuncs).ParseFS(promptFS, "prompts/"+name)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded template %s: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Analysis renders the enrichment prompt. Optional fields follow the depth:
// standard adds contentType, readingLevel and smartCategories; detailed
// also asks for keyPoints and sentiment.
func (p *Prompts) Analysis(in AnalysisInput) (string, error) {
	depth := in.Depth
	if !depth.IsValid() {
		depth = domain.DepthStandard
	}
	return render(p.analysis, map[string]any{
		"Title":         in.Title,
		"URL":           in.URL,
		"Content":       in.Content,
		"Depth":         string(depth),
		"Standard":      depth != domain.DepthBasic,
		"Detailed":      depth == domain.DepthDetailed,
		"Categories":    in.Categories,
		"ContentTypes":  ContentTypes,
		"ReadingLevels": ReadingLevels,
		"Sentiments":    Sentiments,
		"LanguageName":  languageName(in.Locale),
		// Only OpenAI honours the instruction reliably without a reminder.
		"StrictJSON": in.Provider != domain.ProviderOpenAI,
	})
}

// Ask renders a question prompt grounded on the page content.
func (p *Prompts) Ask(in QuestionInput) (string, error) {
	return render(p.ask, map[string]any{
		"Title":        in.Title,
		"Content":      in.Content,
		"Question":     in.Question,
		"Refusal":      in.Locale.Message(domain.MsgUngrounded),
		"LanguageName": languageName(in.Locale),
	})
}

// Quiz renders a quiz prompt grounded on the page content.
func (p *Prompts) Quiz(in QuizInput) (string, error) {
	count := in.Count
	if count <= 0 {
		count = DefaultQuizQuestions
	}
	return render(p.quiz, map[string]any{
		"Title":        in.Title,
		"Content":      in.Content,
		"Count":        count,
		"LanguageName": languageName(in.Locale),
	})
}

func languageName(l domain.Locale) string {
	if l == domain.LocaleChinese {
		return "Simplified Chinese"
	}
	return "English"
}
