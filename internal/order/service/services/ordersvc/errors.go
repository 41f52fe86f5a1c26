package ordersvc

import (
	"errors"
	"fmt"
)

// ErrEmptyDescription rejects an order with a blank description. The
// request is refused before any side effect takes place.
var ErrEmptyDescription = errors.New("order description must not be empty")

// ErrOrderNotFound is returned when no order exists for an external id.
var ErrOrderNotFound = errors.New("order not found")

// PersistenceError is returned when the order write fails. No event has
// been published; a client retry will mint a new external id.
type PersistenceError struct {
	ExternalID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save order %s: %v", e.ExternalID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PublishError is returned when the order was durably written but the
// event publish failed. The order row exists; the event is parked in the
// outbox for the sweep worker.
type PublishError struct {
	ExternalID string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("order %s saved but event publish failed: %v", e.ExternalID, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
