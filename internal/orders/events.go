package orders

import (
	"context"
	"time"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"

	eventVersion  = 1
	eventProducer = "agritech-api"
)

// Event is the envelope published for every order change.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	Producer   string    `json:"producer"`
	OrderID    string    `json:"order_id"`
	Payload    any       `json:"payload"`
}

// StatusChange is the payload of order.status_changed.
type StatusChange struct {
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
	ActorID string             `json:"actor_id"`
}

func newEvent(typ, orderID string, at time.Time, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Version:    eventVersion,
		OccurredAt: at,
		Producer:   eventProducer,
		OrderID:    orderID,
		Payload:    payload,
	}
}

// Publisher delivers order events. Publish must not block on the network.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// JSONProducer is a keyed message sink such as a Kafka producer.
type JSONProducer interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// StreamPublisher publishes events keyed by order id so that all events of
// one order land on the same partition.
type StreamPublisher struct {
	Producer JSONProducer
}

func (p StreamPublisher) Publish(ctx context.Context, ev Event) error {
	return p.Producer.PublishJSON(ctx, ev.OrderID, ev)
}
