package iorderrepo

import (
	"context"
	"errors"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
)

// ErrNotFound is returned when no order exists for the given external id.
var ErrNotFound = errors.New("order not found")

// ErrDuplicateExternalID is returned when an insert violates the unique
// constraint on the external id.
var ErrDuplicateExternalID = errors.New("order external id already exists")

// IOrderRepository is the interface for the order repository.
type IOrderRepository interface {
	// Insert creates exactly one order row and returns its surrogate id.
	Insert(ctx context.Context, ord order.Order) (int64, error)

	// GetByExternalID returns the order with the given external id,
	// or ErrNotFound.
	GetByExternalID(ctx context.Context, externalID string) (*order.Order, error)
}
