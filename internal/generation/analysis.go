package generation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
)

// Allow-lists for enum fields. The first entry of each is not the default;
// see the Default* constants.
var (
	ContentTypes = []string{
		"article", "tutorial", "documentation", "news", "research",
		"reference", "video", "tool", "discussion", "other",
	}
	ReadingLevels = []string{"beginner", "intermediate", "advanced"}
	Sentiments    = []string{"positive", "neutral", "negative"}
)

// Defaults used when the model omits an enum field or returns a value
// outside its allow-list.
const (
	DefaultContentType  = "article"
	DefaultReadingLevel = "intermediate"
	DefaultSentiment    = "neutral"
)

// Read time bounds in minutes. Values supplied by the model are clamped to
// [MinReadTime, MaxReadTime]; estimates computed from content use the
// stricter [MinEstimatedReadTime, MaxReadTime].
const (
	MinReadTime          = 1
	MinEstimatedReadTime = 2
	MaxReadTime          = 120
)

const (
	maxTags            = 10
	maxKeyPoints       = 8
	maxSmartCategories = 5
)

// Analysis is the validated result of an enrichment response.
//
// Defaulted is set when the response had no parseable JSON object; in that
// case every field holds its default. Missing names the fields that were
// absent or invalid in an otherwise parseable response.
type Analysis struct {
	Summary           string
	Category          string
	Tags              []string
	ContentType       string
	ReadingLevel      string
	KeyPoints         []string
	Sentiment         string
	EstimatedReadTime int
	SmartCategories   []string

	Defaulted bool
	Missing   []string
}

type rawAnalysis struct {
	Summary           string          `json:"summary"`
	Category          string          `json:"category"`
	Tags              flexList        `json:"tags"`
	ContentType       string          `json:"contentType"`
	ReadingLevel      string          `json:"readingLevel"`
	KeyPoints         flexList        `json:"keyPoints"`
	Sentiment         string          `json:"sentiment"`
	EstimatedReadTime json.RawMessage `json:"estimatedReadTime"`
	SmartCategories   flexList        `json:"smartCategories"`
}

// flexList accepts a JSON array of strings or a single comma-separated string.
// Non-string array elements are ignored.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var values []any
	if err := json.Unmarshal(data, &values); err == nil {
		for _, v := range values {
			if s, ok := v.(string); ok {
				*l = append(*l, s)
			}
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = strings.Split(s, ",")
	}
	return nil
}

// ParseAnalysis validates a model response. It never fails: a response
// without a usable JSON object yields a Defaulted analysis whose read time
// is estimated from content.
func ParseAnalysis(text, content string) Analysis {
	a := Analysis{
		ContentType:  DefaultContentType,
		ReadingLevel: DefaultReadingLevel,
		Sentiment:    DefaultSentiment,
	}

	var raw rawAnalysis
	object, ok := ExtractJSONObject(text)
	if !ok || json.Unmarshal([]byte(object), &raw) != nil {
		a.Defaulted = true
		a.EstimatedReadTime = EstimateReadTime(content)
		return a
	}

	missing := func(field string) { a.Missing = append(a.Missing, field) }

	a.Summary = strings.TrimSpace(raw.Summary)
	if a.Summary == "" {
		missing("summary")
	}
	a.Category = strings.TrimSpace(raw.Category)
	if a.Category == "" {
		missing("category")
	}
	a.Tags = cleanList(raw.Tags, maxTags, true)
	if len(a.Tags) == 0 {
		missing("tags")
	}

	if v, ok := matchEnum(raw.ContentType, ContentTypes); ok {
		a.ContentType = v
	} else if raw.ContentType != "" {
		missing("contentType")
	}
	if v, ok := matchEnum(raw.ReadingLevel, ReadingLevels); ok {
		a.ReadingLevel = v
	} else if raw.ReadingLevel != "" {
		missing("readingLevel")
	}
	if v, ok := matchEnum(raw.Sentiment, Sentiments); ok {
		a.Sentiment = v
	} else if raw.Sentiment != "" {
		missing("sentiment")
	}

	a.KeyPoints = cleanList(raw.KeyPoints, maxKeyPoints, false)
	a.SmartCategories = cleanList(raw.SmartCategories, maxSmartCategories, false)

	if minutes, ok := coerceMinutes(raw.EstimatedReadTime); ok {
		a.EstimatedReadTime = clamp(minutes, MinReadTime, MaxReadTime)
	} else {
		missing("estimatedReadTime")
		a.EstimatedReadTime = EstimateReadTime(content)
	}

	return a
}

// ApplyFallbacks guarantees a non-empty summary, category and tag list,
// using localized fallback text.
func (a *Analysis) ApplyFallbacks(locale domain.Locale) {
	if a.Summary == "" {
		a.Summary = locale.Message(domain.MsgNoSummary)
	}
	if len(a.Tags) == 0 {
		if a.Category != "" {
			a.Tags = []string{strings.ToLower(a.Category)}
		} else {
			a.Tags = []string{locale.Message(domain.MsgFallbackTag)}
		}
	}
	if a.Category == "" {
		a.Category = locale.Message(domain.MsgUncategorized)
	}
}

// Apply copies the enrichment fields onto b.
func (a Analysis) Apply(b *domain.Bookmark) {
	b.Summary = a.Summary
	b.Category = a.Category
	b.Tags = append([]string(nil), a.Tags...)
	b.ContentType = a.ContentType
	b.ReadingLevel = a.ReadingLevel
	b.KeyPoints = append([]string(nil), a.KeyPoints...)
	b.Sentiment = a.Sentiment
	b.EstimatedReadTime = a.EstimatedReadTime
	b.SmartCategories = append([]string(nil), a.SmartCategories...)
}

func matchEnum(value string, allowed []string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a, true
		}
	}
	return "", false
}

// cleanList trims, drops empties and case-insensitive duplicates, and caps
// the length.
func cleanList(values []string, limit int, lower bool) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

// coerceMinutes accepts a JSON number or a string starting with a number,
// such as "5" or "5 min".
func coerceMinutes(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(math.Round(f)), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExtractJSONObject returns the first balanced {...} substring of text.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end, ok := balancedEnd(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
