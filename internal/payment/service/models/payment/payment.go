package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the record derived from an order-created event. PaymentID
// is derived from the order's external id, so redelivery of the same
// event derives the same payment.
type Payment struct {
	ID              int64           `json:"-"`
	PaymentID       string          `json:"paymentId"`
	Amount          decimal.Decimal `json:"amount"`
	OrderExternalID string          `json:"orderExternalId"`
	Description     string          `json:"description"`
	ItemName        string          `json:"itemName"`
	OrderCreatedAt  time.Time       `json:"orderCreatedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}
