// Package ports defines what the search module needs from the forum data
// store. The repository package provides PostgreSQL and Redis
// implementations; the scanner and service only see these interfaces.
package ports

import (
	"context"
	"time"
)

// GuestUID is the uid of an anonymous reader.
const GuestUID int64 = 0

// Identity is the reader a scan runs as. Visibility of deleted topics and
// restricted categories is decided by the store from this value.
type Identity struct {
	UID        int64
	Privileged bool
}

// Guest returns the anonymous reader identity.
func Guest() Identity {
	return Identity{UID: GuestUID}
}

// IsGuest reports whether the identity is anonymous.
func (i Identity) IsGuest() bool {
	return i.UID == GuestUID
}

// TopicStats carries the counters shown next to a topic.
type TopicStats struct {
	PostCount int64
	ViewCount int64
}

// Topic is a top-level forum document.
type Topic struct {
	TID       int64
	CID       int64
	UID       int64
	Title     string
	Slug      string
	MainPID   int64
	Deleted   bool
	Timestamp time.Time
	Stats     TopicStats
}

// Document is a post body as read from the store.
type Document struct {
	PID int64
	// Content is the raw post markup.
	Content string
	// SourceContent is the pre-rendered plain text variant, empty when absent.
	SourceContent string
}

// Text returns the best available text for matching: SourceContent when
// present, otherwise Content.
func (d Document) Text() string {
	if d.SourceContent != "" {
		return d.SourceContent
	}
	return d.Content
}

// Author is the display data of a post author.
type Author struct {
	UID      int64
	Username string
	Userslug string
	Picture  string
}

// PostSummary is everything needed to render one search result.
type PostSummary struct {
	PID           int64
	TID           int64
	CID           int64
	TopicTitle    string
	TopicSlug     string
	CategoryName  string
	Author        Author
	Content       string
	SourceContent string
	IsMainPost    bool
	Timestamp     time.Time
}

// DocumentStore is the read side of the forum store used by the scanner.
type DocumentStore interface {
	// RecentTopics returns up to limit topics visible to readAs, newest first.
	RecentTopics(ctx context.Context, limit int, readAs Identity) ([]Topic, error)
	// PostTexts returns the text fields of the given posts. Posts that do not
	// exist or are hidden from readAs are omitted.
	PostTexts(ctx context.Context, pids []int64, readAs Identity) ([]Document, error)
	// ReplyPIDs returns up to limit most recent reply pids of a topic,
	// newest first. The main post is not a reply.
	ReplyPIDs(ctx context.Context, tid int64, limit int, readAs Identity) ([]int64, error)
}

// ReaderResolver looks up group membership for the elevated read policy.
type ReaderResolver interface {
	// FirstGroupMember returns the earliest member of group, or ok=false
	// when the group is empty.
	FirstGroupMember(ctx context.Context, group string) (uid int64, ok bool, err error)
	// IsGroupMember reports whether uid belongs to group.
	IsGroupMember(ctx context.Context, group string, uid int64) (bool, error)
}

// SummaryReader loads display data for matched posts.
type SummaryReader interface {
	// PostSummaries returns summaries for pids in the same order, skipping
	// posts hidden from readAs.
	PostSummaries(ctx context.Context, pids []int64, readAs Identity) ([]PostSummary, error)
	// TopicCount returns the total number of topics in the forum.
	TopicCount(ctx context.Context) (int64, error)
}

// Store is the full set of capabilities a forum backend provides.
type Store interface {
	DocumentStore
	ReaderResolver
	SummaryReader
	Ping(ctx context.Context) error
}
