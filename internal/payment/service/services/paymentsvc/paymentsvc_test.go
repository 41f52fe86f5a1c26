package paymentsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/interfaces/ipaymentrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/payment"
	"github.com/shopspring/decimal"
)

type fakePaymentRepo struct {
	payments map[string]payment.Payment
	saves    int
	saveErr  error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]payment.Payment)}
}

func (r *fakePaymentRepo) Save(_ context.Context, p payment.Payment) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.saves++
	if _, ok := r.payments[p.PaymentID]; ok {
		// Conflicting payment id: no-op, matching ON CONFLICT DO NOTHING.
		return nil
	}
	r.payments[p.PaymentID] = p

	return nil
}

func (r *fakePaymentRepo) GetByPaymentID(_ context.Context, paymentID string) (*payment.Payment, error) {
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, ipaymentrepo.ErrNotFound
	}

	return &p, nil
}

func orderCreatedEvent() *event.OrderCreatedEvent {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return &event.OrderCreatedEvent{
		EventID:    "e-1",
		EventType:  event.EventTypeOrderCreated,
		OccurredAt: now,
		Order: event.OrderPayload{
			ExternalID:  "ext-1",
			Description: "Widget order",
			ItemName:    "Widget",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func newTestService(repo *fakePaymentRepo) *PaymentService {
	return MustNewPaymentService(
		WithPaymentRepository(repo),
		WithDefaultAmount(decimal.NewFromFloat(100.00)),
	)
}

func TestProcessOrderCreatedDerivesPayment(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo)

	if err := svc.ProcessOrderCreated(context.Background(), orderCreatedEvent()); err != nil {
		t.Fatalf("ProcessOrderCreated failed: %v", err)
	}

	p, err := repo.GetByPaymentID(context.Background(), "PAY-ext-1")
	if err != nil {
		t.Fatalf("expected the derived payment to exist: %v", err)
	}
	if p.OrderExternalID != "ext-1" {
		t.Errorf("order external id mismatch: got %q", p.OrderExternalID)
	}
	if p.Description != "Widget order" {
		t.Errorf("description mismatch: got %q", p.Description)
	}
	if p.ItemName != "Widget" {
		t.Errorf("item name mismatch: got %q", p.ItemName)
	}
	if !p.Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("amount mismatch: got %s", p.Amount)
	}
}

func TestProcessOrderCreatedIsIdempotent(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestService(repo)
	ev := orderCreatedEvent()

	// At-least-once delivery: the same event may arrive twice.
	if err := svc.ProcessOrderCreated(context.Background(), ev); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := svc.ProcessOrderCreated(context.Background(), ev); err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("expected exactly one payment record, got %d", len(repo.payments))
	}
	if repo.saves != 2 {
		t.Fatalf("expected both saves to reach the store, got %d", repo.saves)
	}
}

func TestProcessOrderCreatedPersistenceFailure(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.saveErr = errors.New("connection refused")
	svc := newTestService(repo)

	err := svc.ProcessOrderCreated(context.Background(), orderCreatedEvent())
	if err == nil {
		t.Fatal("expected an error when the store is unavailable")
	}
	if !errors.Is(err, repo.saveErr) {
		t.Error("expected the underlying cause to be wrapped")
	}
}
