package ipaymentrepo

import (
	"context"
	"errors"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/payment"
)

// ErrNotFound is returned when no payment exists for the given payment id.
var ErrNotFound = errors.New("payment not found")

// IPaymentRepository is the interface for the payment repository.
type IPaymentRepository interface {
	// Save persists a derived payment. Saving the same payment id twice
	// is a no-op, so duplicate event delivery derives one record.
	Save(ctx context.Context, p payment.Payment) error

	// GetByPaymentID returns the payment with the given id, or ErrNotFound.
	GetByPaymentID(ctx context.Context, paymentID string) (*payment.Payment, error)
}
