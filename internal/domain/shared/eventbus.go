package shared

import "context"

// EventHandler consumes domain events
type EventHandler interface {
	// Handle processes a single domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice subscribes the handler to every event.
	EventTypes() []string
}

// EventPublisher publishes domain events drained from aggregates
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers for domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types.
	// Without event types the handler receives all events.
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from every subscription
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription
type EventBus interface {
	EventPublisher
	EventSubscriber
}
