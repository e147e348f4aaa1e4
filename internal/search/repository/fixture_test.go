package repository

import (
	"errors"
	"strings"
	"testing"
)

const testFixtureYAML = `
categories:
  - {cid: 1, name: General, slug: 1/general}
  - {cid: 2, name: Staff, slug: 2/staff, restricted: true}
users:
  - {uid: 1, username: admin, userslug: admin}
  - {uid: 2, username: alice, userslug: alice, picture: /a.png}
groups:
  administrators: [1]
topics:
  - tid: 1
    cid: 1
    uid: 2
    title: Welcome
    slug: 1/welcome
    views: 10
    timestamp: 2024-01-01T00:00:00Z
    posts:
      - {pid: 10, uid: 2, content: "<p>hello world</p>"}
      - {pid: 11, uid: 1, content: "a reply"}
      - {pid: 12, uid: 1, content: "secret reply", deleted: true}
  - tid: 2
    cid: 2
    uid: 1
    title: Staff only
    slug: 2/staff-only
    timestamp: 2024-01-02T00:00:00Z
    posts:
      - {pid: 20, uid: 1, content: "staff notes"}
  - tid: 3
    cid: 1
    uid: 2
    title: Gone
    slug: 3/gone
    deleted: true
    timestamp: 2024-01-03T00:00:00Z
    posts:
      - {pid: 30, uid: 2, content: "gone"}
  - tid: 4
    cid: 1
    uid: 2
    title: Newest
    slug: 4/newest
    timestamp: 2024-01-04T00:00:00Z
    posts:
      - {pid: 40, uid: 2, content: "<p>raw</p>", sourceContent: "source text"}
      - {pid: 41, uid: 1, content: "reply one", timestamp: 2024-01-05T00:00:00Z}
      - {pid: 42, uid: 2, content: "reply two", timestamp: 2024-01-06T00:00:00Z}
`

func mustFixture(t *testing.T) *Fixture {
	t.Helper()
	f, err := ParseFixture(strings.NewReader(testFixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	return f
}

func TestParseFixture(t *testing.T) {
	f := mustFixture(t)

	if len(f.Topics) != 4 || len(f.Categories) != 2 || len(f.Users) != 2 {
		t.Fatalf("unexpected fixture sizes: %d topics, %d categories, %d users", len(f.Topics), len(f.Categories), len(f.Users))
	}
	if got := f.Topics[3].mainPID(); got != 40 {
		t.Fatalf("expected main pid 40, got %d", got)
	}
	if f.Topics[0].Timestamp.Year() != 2024 {
		t.Fatalf("expected parsed timestamp, got %v", f.Topics[0].Timestamp)
	}
	if got := f.Topics[0].Posts[1].createdAt(f.Topics[0]); !got.Equal(f.Topics[0].Timestamp) {
		t.Fatalf("expected post without timestamp to inherit topic time, got %v", got)
	}
}

func TestParseFixtureRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown field":    "topicz: []",
		"unknown category": "topics: [{tid: 1, cid: 9, posts: [{pid: 1}]}]",
		"no main post":     "categories: [{cid: 1}]\ntopics: [{tid: 1, cid: 1}]",
		"duplicate post":   "categories: [{cid: 1}]\ntopics: [{tid: 1, cid: 1, posts: [{pid: 1}]}, {tid: 2, cid: 1, posts: [{pid: 1}]}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(doc))
			if !errors.Is(err, ErrInvalidFixture) {
				t.Fatalf("expected ErrInvalidFixture, got %v", err)
			}
		})
	}
}
