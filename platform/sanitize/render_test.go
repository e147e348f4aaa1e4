package sanitize

import (
	"strings"
	"testing"
)

func TestRendererRender(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		in       string
		contains []string
		excludes []string
	}{
		{name: "empty", in: "   "},
		{name: "markdown", in: "**bold** text", contains: []string{"<strong>bold</strong>"}},
		{name: "raw html kept", in: "<p>hello <em>there</em></p>", contains: []string{"<em>there</em>"}},
		{name: "script removed", in: "hi <script>alert(1)</script>", contains: []string{"hi"}, excludes: []string{"script", "alert"}},
		{name: "event handlers removed", in: `<a href="https://example.com" onclick="x()">link</a>`, contains: []string{`rel="nofollow`, "link"}, excludes: []string{"onclick"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.in)
			if len(tt.contains) == 0 && got != "" {
				t.Fatalf("expected empty output, got %q", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Fatalf("Render(%q) = %q, missing %q", tt.in, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Fatalf("Render(%q) = %q, should not contain %q", tt.in, got, bad)
				}
			}
		})
	}
}
