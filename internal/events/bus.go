// Package events re-exports the platform event bus and declares the events
// published by the search module.
package events

import (
	platformevents "forum_search_backend/platform/events"
	"forum_search_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
