package generation

import (
	"math"
	"strings"
	"unicode"
)

const (
	chineseCharsPerMinute = 450
	wordsPerMinute        = 250
	codeMultiplier        = 1.5

	// Share of non-space runes that must be Han for text to count as Chinese.
	chineseRatio = 0.5
	// Share of non-space runes that are code punctuation in code-heavy text.
	codeSymbolRatio = 0.04
)

// EstimateReadTime estimates reading minutes from content length and script:
// about 450 Han characters or 250 words per minute, 1.5 times slower for
// code-heavy text. The result is clamped to [MinEstimatedReadTime, MaxReadTime].
func EstimateReadTime(content string) int {
	var runes, han, symbols int
	for _, r := range content {
		if unicode.IsSpace(r) {
			continue
		}
		runes++
		if unicode.Is(unicode.Han, r) {
			han++
		}
		if strings.ContainsRune("{}[]();=<>", r) {
			symbols++
		}
	}
	if runes == 0 {
		return MinEstimatedReadTime
	}

	var minutes float64
	if float64(han)/float64(runes) >= chineseRatio {
		minutes = float64(runes) / chineseCharsPerMinute
	} else {
		minutes = float64(len(strings.Fields(content))) / wordsPerMinute
	}
	if float64(symbols)/float64(runes) >= codeSymbolRatio {
		minutes *= codeMultiplier
	}

	return clamp(int(math.Ceil(minutes)), MinEstimatedReadTime, MaxReadTime)
}
