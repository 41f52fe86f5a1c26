package event

import (
	"time"

	"github.com/google/uuid"
)

// EventTypeOrderCreated identifies the event published after an order
// has been durably written.
const EventTypeOrderCreated = "order.created"

// OrderPayload carries the order fields at creation time. The internal
// surrogate id never crosses the wire.
type OrderPayload struct {
	ExternalID  string    `json:"externalId"`
	Description string    `json:"description"`
	ItemName    string    `json:"itemName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrderCreatedEvent is the envelope exchanged through the message topic.
type OrderCreatedEvent struct {
	EventID    string       `json:"eventId"`
	EventType  string       `json:"eventType"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      OrderPayload `json:"order"`
}

// NewOrderCreated builds an envelope for the given order payload,
// stamping a fresh event id and the occurrence time.
func NewOrderCreated(payload OrderPayload) OrderCreatedEvent {
	return OrderCreatedEvent{
		EventID:    uuid.NewString(),
		EventType:  EventTypeOrderCreated,
		OccurredAt: time.Now().UTC(),
		Order:      payload,
	}
}

// Key returns the partitioning key for the event: the order's external id.
func (e OrderCreatedEvent) Key() string {
	return e.Order.ExternalID
}
