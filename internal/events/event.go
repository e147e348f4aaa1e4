// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"forum_search_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Search Domain Events
// =============================================================================

// SearchCompleted is published after every successful search, including
// partial ones.
type SearchCompleted struct {
	BaseEvent
	SearchID           uuid.UUID `json:"searchId"`
	Term               string    `json:"term"`
	CategoryID         int64     `json:"categoryId,omitempty"`
	CallerUID          int64     `json:"callerUid"`
	ReadAsUID          int64     `json:"readAsUid"`
	MatchCount         int       `json:"matchCount"`
	Returned           int       `json:"returned"`
	TopicsScanned      int       `json:"topicsScanned"`
	PostsScanned       int       `json:"postsScanned"`
	FailedReplyFetches int       `json:"failedReplyFetches"`
	FailedBatches      int       `json:"failedBatches"`
	Partial            bool      `json:"partial"`
	TookMs             int64     `json:"tookMs"`
}

func (e SearchCompleted) EventName() string { return "search.completed" }
