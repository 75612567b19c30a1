// Package local provides an in-process event bus used when no external bus
// is configured and in tests.
package local

import (
	"context"
	"sync"

	"hirenest/application/ports"
	"hirenest/domain/events"

	"go.uber.org/zap"
)

// EventBus records published events and logs them at debug level
type EventBus struct {
	mu     sync.Mutex
	events []events.DomainEvent
	logger *zap.Logger
}

// NewEventBus creates a local event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{logger: logger}
}

var _ ports.EventBus = (*EventBus)(nil)

// Publish records one event
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch records events in order
func (b *EventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range domainEvents {
		b.logger.Debug("Domain event",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateID", e.GetAggregateID()),
		)
	}
	b.events = append(b.events, domainEvents...)
	return nil
}

// Events returns a copy of everything published so far
func (b *EventBus) Events() []events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.DomainEvent(nil), b.events...)
}

// OfType returns the published events with the given type name
func (b *EventBus) OfType(eventType string) []events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []events.DomainEvent
	for _, e := range b.events {
		if e.GetEventType() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}
