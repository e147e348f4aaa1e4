package scan

import (
	"errors"
	"reflect"
	"testing"

	"forum_search_backend/internal/search/ports"
	"forum_search_backend/platform/apperr"
)

func TestFindMatchesReturnsMatchingPIDsInOrder(t *testing.T) {
	docs := []ports.Document{
		{PID: 1, Content: "hello world"},
		{PID: 2, Content: "no match here"},
		{PID: 3, SourceContent: "another hello"},
	}

	got := FindMatches(docs, "hello")
	if want := []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FindMatches() = %v, want %v", got, want)
	}
}

func TestFindMatchesIsCaseInsensitive(t *testing.T) {
	docs := []ports.Document{
		{PID: 9, Content: "HeLLo"},
		{PID: 4, Content: "HELLO there"},
	}
	got := FindMatches(docs, "hELLo")
	if want := []int64{9, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FindMatches() = %v, want %v", got, want)
	}
}

func TestFindMatchesPrefersSourceContent(t *testing.T) {
	docs := []ports.Document{
		{PID: 1, Content: "<p>hello</p>", SourceContent: "goodbye"},
		{PID: 2, Content: "<p>goodbye</p>", SourceContent: ""},
	}
	got := FindMatches(docs, "goodbye")
	if want := []int64{1, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FindMatches() = %v, want %v", got, want)
	}
	if got := FindMatches(docs, "hello"); len(got) != 0 {
		t.Fatalf("expected raw content to be ignored when source content exists, got %v", got)
	}
}

func TestFindMatchesEmptyInput(t *testing.T) {
	if got := FindMatches(nil, "x"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	docs := []ports.Document{{PID: 1, Content: "anything"}}
	if got := FindMatches(docs, ""); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestNewQueryRejectsBlankTerm(t *testing.T) {
	for _, term := range []string{"", "   ", "\t\n"} {
		_, err := NewQuery(term, "")
		if !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("expected ErrInvalidQuery for %q, got %v", term, err)
		}
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation kind for %q, got %v", term, err)
		}
		if err.Error() != "search term is required" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestNewQueryNormalizesTerm(t *testing.T) {
	q, err := NewQuery("  Hello World ", "category:7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Term != "hello world" {
		t.Fatalf("expected normalized term, got %q", q.Term)
	}
	if q.Scope.CategoryID != 7 {
		t.Fatalf("expected category scope 7, got %d", q.Scope.CategoryID)
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "", want: 0},
		{in: "  ", want: 0},
		{in: "category:2", want: 2},
		{in: "in:category:9", want: 9},
		{in: "12", want: 12},
		{in: " 5 ", want: 5},
		{in: "category:0", want: 0},
		{in: "cat", want: 0},
		{in: "category:x", want: 0},
		{in: "-3", want: 0},
		{in: "99999999999999999999", want: 0},
	}

	for _, tt := range tests {
		scope := ParseScope(tt.in)
		if scope.CategoryID != tt.want {
			t.Fatalf("ParseScope(%q) = %d, want %d", tt.in, scope.CategoryID, tt.want)
		}
		if scope.IsSet() != (tt.want > 0) {
			t.Fatalf("ParseScope(%q).IsSet() = %v", tt.in, scope.IsSet())
		}
	}
}

func TestNewQueryIgnoresUnknownScope(t *testing.T) {
	for _, in := range []string{"titlesposts", "titles", "posts", "categories", "everywhere"} {
		q, err := NewQuery("hello", in)
		if err != nil {
			t.Fatalf("NewQuery(%q) unexpected error: %v", in, err)
		}
		if q.Scope.IsSet() {
			t.Fatalf("NewQuery(%q) expected no category filter, got %d", in, q.Scope.CategoryID)
		}
	}
}
