package scan

import (
	"strings"
	"unicode"

	"forum_search_backend/internal/search/ports"
)

var toLower = unicode.ToLower

// FindMatches returns the pids of docs whose text contains term,
// case-insensitively, in input order. An empty term or doc list yields an
// empty slice.
func FindMatches(docs []ports.Document, term string) []int64 {
	matched := make([]int64, 0)
	if len(docs) == 0 || term == "" {
		return matched
	}

	needle := strings.ToLower(term)
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Text()), needle) {
			matched = append(matched, doc.PID)
		}
	}
	return matched
}
