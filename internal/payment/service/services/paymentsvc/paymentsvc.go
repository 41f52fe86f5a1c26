package paymentsvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/interfaces/ipaymentrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/payment"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// paymentIDPrefix marks payment ids derived from order events.
const paymentIDPrefix = "PAY-"

// PaymentService derives payment records from order-created events.
type PaymentService struct {
	paymentRepo   ipaymentrepo.IPaymentRepository
	defaultAmount decimal.Decimal
}

// option is a function that configures the PaymentService.
type option func(*PaymentService)

// MustNewPaymentService creates a new PaymentService.
func MustNewPaymentService(opts ...option) *PaymentService {
	s := &PaymentService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPaymentRepository sets the payment repository for the PaymentService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentRepository(paymentRepo ipaymentrepo.IPaymentRepository) option {
	return func(s *PaymentService) {
		s.paymentRepo = paymentRepo
	}
}

// WithDefaultAmount sets the placeholder amount assigned to derived
// payments. Real amount derivation belongs to an external business rule.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDefaultAmount(amount decimal.Decimal) option {
	return func(s *PaymentService) {
		s.defaultAmount = amount
	}
}

// ProcessOrderCreated derives a payment from the event and persists it.
// The payment id is a pure function of the order's external id, so a
// redelivered event derives the same record and the save is a no-op.
func (s *PaymentService) ProcessOrderCreated(ctx context.Context, ev *event.OrderCreatedEvent) error {
	ctx, span := otel.Tracer("service").Start(ctx, "PaymentService.ProcessOrderCreated")
	defer span.End()

	p := s.derivePayment(ev)

	slog.Info("Deriving payment",
		"payment_id", p.PaymentID,
		"order_external_id", p.OrderExternalID,
		"event_id", ev.EventID,
	)

	if err := s.paymentRepo.Save(ctx, p); err != nil {
		slog.Error("Failed to save payment", "payment_id", p.PaymentID, "error", err)

		return fmt.Errorf("failed to save payment %s: %w", p.PaymentID, err)
	}

	slog.Info("Payment processed successfully", "payment_id", p.PaymentID)

	return nil
}

func (s *PaymentService) derivePayment(ev *event.OrderCreatedEvent) payment.Payment {
	return payment.Payment{
		PaymentID:       paymentIDPrefix + ev.Order.ExternalID,
		Amount:          s.defaultAmount,
		OrderExternalID: ev.Order.ExternalID,
		Description:     ev.Order.Description,
		ItemName:        ev.Order.ItemName,
		OrderCreatedAt:  ev.Order.CreatedAt,
		CreatedAt:       time.Now().UTC(),
	}
}
