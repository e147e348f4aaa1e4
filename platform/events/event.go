// Package events is the in-process event bus. The search module publishes
// one completion event per request on it; subscribers such as the partial
// scan logger run off the request path.
package events

import (
	"context"
	"time"
)

// Event is implemented by everything published on the bus.
type Event interface {
	// EventName is the subscription key, e.g. "search.completed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publish time shared by every event.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one event name. Errors are logged by the bus, never
// returned to the publisher of an async Publish.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to handlers by name.
type Bus interface {
	// Publish hands the event to its handlers on separate goroutines and
	// returns immediately.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers in subscription order and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe adds handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}
