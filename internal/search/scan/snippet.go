package scan

import (
	"strings"
	"unicode/utf8"

	"forum_search_backend/platform/sanitize"
)

// Default context padding around a snippet match, in characters.
const (
	DefaultSnippetLeft  = 60
	DefaultSnippetRight = 120
)

const ellipsis = "..."

// BuildSnippet strips markup from text and returns an excerpt around the
// earliest occurrence of any term, compared case-insensitively. When two
// terms start at the same offset the one listed first wins. The excerpt
// spans left characters before the match and right characters after it,
// with "..." marking each truncated side.
//
// ok is false when text or terms is empty or no term occurs.
func BuildSnippet(text string, terms []string, left, right int) (snippet string, ok bool) {
	if text == "" || len(terms) == 0 {
		return "", false
	}
	if left < 0 {
		left = 0
	}
	if right < 0 {
		right = 0
	}

	plain := []rune(sanitize.StripHTML(text))
	if len(plain) == 0 {
		return "", false
	}
	folded := string(foldRunes(plain))

	first, matchLen := -1, 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		needle := string(foldRunes([]rune(term)))
		byteIdx := strings.Index(folded, needle)
		if byteIdx < 0 {
			continue
		}
		pos := utf8.RuneCountInString(folded[:byteIdx])
		if first == -1 || pos < first {
			first = pos
			matchLen = utf8.RuneCountInString(needle)
		}
	}
	if first == -1 {
		return "", false
	}

	start := max(0, first-left)
	end := min(len(plain), first+matchLen+right)

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(plain[start:end]))
	if end < len(plain) {
		b.WriteString(ellipsis)
	}
	return b.String(), true
}

// foldRunes lower-cases rune by rune so indexes stay aligned with the input.
func foldRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = toLower(r)
	}
	return out
}
