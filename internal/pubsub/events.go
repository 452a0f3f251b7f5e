// Package pubsub fans file events out to any number of subscribers, such as
// a viewer that reloads its document and the reference panel that rerenders
// when the bibliography changes.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to the subject of an event.
type EventType string

const (
	// ChangedEvent reports content that was written or replaced.
	ChangedEvent EventType = "changed"
	// RemovedEvent reports content that no longer exists.
	RemovedEvent EventType = "removed"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
