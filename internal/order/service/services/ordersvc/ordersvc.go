package ordersvc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/interfaces/iorderrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/interfaces/ioutboxrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/outbox"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const outboxMaxRetries = 10

// publisher is the gateway used to publish order events.
type publisher interface {
	Publish(cfg rabbitmq.PublishConfig) error
}

// OrderService is a service for managing orders.
type OrderService struct {
	orderRepo  iorderrepo.IOrderRepository
	outboxRepo ioutboxrepo.IOutboxRepository
	publisher  publisher
	queueName  string
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithOrderRepository sets the order repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(orderRepo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = orderRepo
	}
}

// WithOutboxRepository sets the outbox repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(outboxRepo ioutboxrepo.IOutboxRepository) option {
	return func(s *OrderService) {
		s.outboxRepo = outboxRepo
	}
}

// WithPublisher sets the event publisher for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublisher(p publisher) option {
	return func(s *OrderService) {
		s.publisher = p
	}
}

// WithQueueName sets the topic queue the order events are published to.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithQueueName(queueName string) option {
	return func(s *OrderService) {
		s.queueName = queueName
	}
}

// CreateOrder creates a new order and publishes an order-created event.
// Persistence always precedes publication: a consumer can never observe
// an event for an order that is not yet queryable. On publish failure
// the order row stays durable and the event is parked in the outbox.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	description string,
	itemName string,
) (string, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyDescription
	}

	externalID := uuid.NewString()
	now := time.Now().UTC()

	ord := order.Order{
		ExternalID:  externalID,
		Description: description,
		ItemName:    itemName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.orderRepo.Insert(ctx, ord)
	if err != nil {
		slog.Error("Failed to save order", "external_id", externalID, "error", err)

		return "", &PersistenceError{ExternalID: externalID, Err: err}
	}
	ord.ID = id

	slog.Info("Order saved", "external_id", externalID, "description", description)

	ev := event.NewOrderCreated(event.OrderPayload{
		ExternalID:  ord.ExternalID,
		Description: ord.Description,
		ItemName:    ord.ItemName,
		CreatedAt:   ord.CreatedAt,
		UpdatedAt:   ord.UpdatedAt,
	})

	body, err := event.Encode(ev)
	if err != nil {
		return "", &PublishError{ExternalID: externalID, Err: err}
	}

	if err := s.publisher.Publish(rabbitmq.PublishConfig{
		RoutingKey: s.queueName,
		Key:        ev.Key(),
		Body:       body,
	}); err != nil {
		slog.Error("Failed to publish order event", "external_id", externalID, "error", err)
		s.enqueueOutbox(ctx, ev.Key(), body, err)

		return "", &PublishError{ExternalID: externalID, Err: err}
	}

	slog.Info("Order event published", "external_id", externalID, "event_id", ev.EventID)

	return externalID, nil
}

// enqueueOutbox parks a failed publish for the sweep worker. Best effort:
// an outbox failure is logged, the caller still sees the PublishError.
func (s *OrderService) enqueueOutbox(ctx context.Context, key string, body []byte, cause error) {
	now := time.Now()

	msg := outbox.OutboxMessage{
		QueueName:   s.queueName,
		RoutingKey:  s.queueName,
		Key:         key,
		Payload:     body,
		ContentType: "application/json",
		MaxRetries:  outboxMaxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}

	if err := s.outboxRepo.Insert(ctx, msg); err != nil {
		slog.Error("Failed to enqueue order event into outbox",
			"external_id", key,
			"error", err,
		)
	}
}

// GetOrder retrieves an order by its external id.
func (s *OrderService) GetOrder(ctx context.Context, externalID string) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	ord, err := s.orderRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, iorderrepo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}

		return nil, &PersistenceError{ExternalID: externalID, Err: err}
	}

	return ord, nil
}
