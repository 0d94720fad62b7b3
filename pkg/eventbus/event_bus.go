// Package eventbus publishes and consumes journey lifecycle events over watermill.
package eventbus

import (
	"context"

	"github.com/dukex/journeys/pkg/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event events.Event) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// Observer publishes engine lifecycle events to a bus, keyed by execution.
type Observer struct {
	publisher EventPublisher
}

func NewObserver(publisher EventPublisher) *Observer {
	return &Observer{publisher: publisher}
}

func (o *Observer) Notify(ctx context.Context, event events.Event) error {
	return o.publisher.Publish(ctx, event.Key(), event)
}
