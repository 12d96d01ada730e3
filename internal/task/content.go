package task

import (
	"net/url"
	"regexp"
	"strings"
)

// MinContentLength is the shortest extracted text used as-is. Shorter text
// is replaced by FallbackContent.
const MinContentLength = 50

var numericSegment = regexp.MustCompile(`^[0-9]+$`)

// FallbackContent synthesizes text from a bookmark's title and URL path.
// Numeric path segments are dropped; hyphens and underscores become spaces.
func FallbackContent(title, rawURL string) string {
	parts := []string{}
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}

	if u, err := url.Parse(rawURL); err == nil {
		for _, seg := range strings.Split(u.Path, "/") {
			if unescaped, err := url.PathUnescape(seg); err == nil {
				seg = unescaped
			}
			seg = strings.TrimSuffix(seg, pathExt(seg))
			seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
			seg = strings.Join(strings.Fields(seg), " ")
			if seg == "" || numericSegment.MatchString(seg) {
				continue
			}
			parts = append(parts, seg)
		}
	}

	return strings.Join(parts, " ")
}

// pathExt returns a short trailing extension such as ".html", or "".
func pathExt(seg string) string {
	i := strings.LastIndexByte(seg, '.')
	if i <= 0 || len(seg)-i > 6 {
		return ""
	}
	return seg[i:]
}
