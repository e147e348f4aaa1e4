// Package sanitize converts forum post markup into plain text for matching
// and display.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// skipTags hold content that is never part of the readable text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// blockTags end a line in the plain text rendering.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// StripHTML removes tags, comments and script/style bodies from s and
// decodes entities. Text is kept in document order; block elements become
// line breaks. Empty input yields "".
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth == 0 && blockTags[tag] {
				lineBreak(&b)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 && blockTags[tag] {
				lineBreak(&b)
			}

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// lineBreak ends the current line unless it is already ended.
func lineBreak(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	if strings.HasSuffix(b.String(), "\n") {
		return
	}
	b.WriteByte('\n')
}
