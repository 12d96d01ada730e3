package domain

import (
	"sort"
	"strings"
)

// CategoryRegistry maps smart category names to how many bookmarks used them.
type CategoryRegistry map[string]int

// Record increments the usage count of each name, creating entries as needed.
// Blank names are ignored. Returns the names seen for the first time.
func (r CategoryRegistry) Record(names ...string) []string {
	var created []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r[name]; !ok {
			created = append(created, name)
		}
		r[name]++
	}
	return created
}

// Ranked returns category names most-used first, ties broken alphabetically.
// A non-positive limit returns every name.
func (r CategoryRegistry) Ranked(limit int) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if r[names[i]] != r[names[j]] {
			return r[names[i]] > r[names[j]]
		}
		return names[i] < names[j]
	})

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}
