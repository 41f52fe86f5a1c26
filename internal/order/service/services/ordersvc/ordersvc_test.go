package ordersvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/interfaces/iorderrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/outbox"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
)

type fakeOrderRepo struct {
	orders    map[string]order.Order
	nextID    int64
	insertErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]order.Order)}
}

func (r *fakeOrderRepo) Insert(_ context.Context, ord order.Order) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	if _, ok := r.orders[ord.ExternalID]; ok {
		return 0, iorderrepo.ErrDuplicateExternalID
	}

	r.nextID++
	ord.ID = r.nextID
	r.orders[ord.ExternalID] = ord

	return ord.ID, nil
}

func (r *fakeOrderRepo) GetByExternalID(_ context.Context, externalID string) (*order.Order, error) {
	ord, ok := r.orders[externalID]
	if !ok {
		return nil, iorderrepo.ErrNotFound
	}

	return &ord, nil
}

type fakePublisher struct {
	published  []rabbitmq.PublishConfig
	publishErr error
}

func (p *fakePublisher) Publish(cfg rabbitmq.PublishConfig) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, cfg)

	return nil
}

type fakeOutboxRepo struct {
	inserted []outbox.OutboxMessage
}

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.inserted = append(r.inserted, msg)

	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, _ int64) error {
	return nil
}

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

func newTestService(repo *fakeOrderRepo, pub *fakePublisher, ob *fakeOutboxRepo) *OrderService {
	return MustNewOrderService(
		WithOrderRepository(repo),
		WithOutboxRepository(ob),
		WithPublisher(pub),
		WithQueueName("order-topic"),
	)
}

func TestCreateOrderThenGet(t *testing.T) {
	repo := newFakeOrderRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, &fakeOutboxRepo{})

	externalID, err := svc.CreateOrder(context.Background(), "Widget order", "Widget")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if externalID == "" {
		t.Fatal("expected a non-empty external id")
	}

	ord, err := svc.GetOrder(context.Background(), externalID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if ord.Description != "Widget order" {
		t.Errorf("description mismatch: got %q", ord.Description)
	}
	if ord.ItemName != "Widget" {
		t.Errorf("item name mismatch: got %q", ord.ItemName)
	}
	if ord.CreatedAt.IsZero() {
		t.Error("expected created timestamp to be set")
	}
	if !ord.UpdatedAt.Equal(ord.CreatedAt) {
		t.Error("expected updated timestamp to equal created timestamp on intake")
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected exactly one published event, got %d", len(pub.published))
	}
	if pub.published[0].Key != externalID {
		t.Errorf("event key mismatch: got %q, want %q", pub.published[0].Key, externalID)
	}

	ev, err := event.Decode(pub.published[0].Body)
	if err != nil {
		t.Fatalf("published event does not decode: %v", err)
	}
	if ev.Order.ExternalID != externalID {
		t.Errorf("event external id mismatch: got %q", ev.Order.ExternalID)
	}
}

func TestCreateOrderEmptyDescription(t *testing.T) {
	for _, description := range []string{"", "   "} {
		repo := newFakeOrderRepo()
		pub := &fakePublisher{}
		svc := newTestService(repo, pub, &fakeOutboxRepo{})

		_, err := svc.CreateOrder(context.Background(), description, "Widget")
		if !errors.Is(err, ErrEmptyDescription) {
			t.Fatalf("expected ErrEmptyDescription, got %v", err)
		}

		if len(repo.orders) != 0 {
			t.Error("expected no order to be persisted")
		}
		if len(pub.published) != 0 {
			t.Error("expected no event to be published")
		}
	}
}

func TestCreateOrderPersistenceFailure(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.insertErr = errors.New("connection refused")
	pub := &fakePublisher{}
	svc := newTestService(repo, pub, &fakeOutboxRepo{})

	_, err := svc.CreateOrder(context.Background(), "Widget order", "Widget")

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected *PersistenceError, got %T: %v", err, err)
	}
	if !errors.Is(err, repo.insertErr) {
		t.Error("expected the underlying cause to be wrapped")
	}
	if len(pub.published) != 0 {
		t.Error("expected no publish call after persistence failure")
	}
}

func TestCreateOrderPublishFailure(t *testing.T) {
	repo := newFakeOrderRepo()
	pub := &fakePublisher{publishErr: errors.New("broker unavailable")}
	ob := &fakeOutboxRepo{}
	svc := newTestService(repo, pub, ob)

	_, err := svc.CreateOrder(context.Background(), "Widget order", "Widget")

	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("expected *PublishError, got %T: %v", err, err)
	}

	// The order row is already durable: the partial-failure state.
	ord, err := svc.GetOrder(context.Background(), publishErr.ExternalID)
	if err != nil {
		t.Fatalf("expected the order to remain readable, got %v", err)
	}
	if ord.ExternalID != publishErr.ExternalID {
		t.Errorf("external id mismatch: got %q", ord.ExternalID)
	}

	// The lost event is parked in the outbox for the sweep worker.
	if len(ob.inserted) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(ob.inserted))
	}
	if ob.inserted[0].Key != publishErr.ExternalID {
		t.Errorf("outbox key mismatch: got %q", ob.inserted[0].Key)
	}
	if _, err := event.Decode(ob.inserted[0].Payload); err != nil {
		t.Errorf("outbox payload does not decode: %v", err)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), &fakePublisher{}, &fakeOutboxRepo{})

	_, err := svc.GetOrder(context.Background(), "missing-id")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCreateOrderMintsDistinctIdentifiers(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, &fakePublisher{}, &fakeOutboxRepo{})

	first, err := svc.CreateOrder(context.Background(), "Widget order", "Widget")
	if err != nil {
		t.Fatalf("first CreateOrder failed: %v", err)
	}
	second, err := svc.CreateOrder(context.Background(), "Widget order", "Widget")
	if err != nil {
		t.Fatalf("second CreateOrder failed: %v", err)
	}

	if first == second {
		t.Error("expected each intake to mint a fresh external id")
	}
}
