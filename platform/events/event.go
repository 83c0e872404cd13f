// Package events carries domain events between modules without the
// publisher knowing who listens.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published domain event.
type Event interface {
	// EventName identifies the event type for subscription.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events to carry the timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to a published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the write side of the bus. Services depend on this alone.
type Publisher interface {
	// Publish fans the event out to handlers without waiting for them.
	Publish(ctx context.Context, event Event)
	// PublishSync waits for every handler and returns their joined errors.
	PublishSync(ctx context.Context, event Event) error
}

// Bus combines publishing with handler registration.
type Bus interface {
	Publisher
	Subscribe(eventName string, handler Handler)
}
