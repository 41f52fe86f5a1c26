package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/interfaces/iinboxrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/inbox"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 50

// service represents the service layer interface.
type service interface {
	ProcessOrderCreated(ctx context.Context, ev *event.OrderCreatedEvent) error
}

// Consumer represents the RabbitMQ consumer transport.
type Consumer struct {
	client     *rabbitmq.Client
	service    service
	inboxRepo  iinboxrepo.IInboxRepository
	queue      amqp.Queue
	maxRetries int
	stop       chan struct{}
	done       chan struct{}
}

// NewConsumer creates a new Consumer.
func NewConsumer(client *rabbitmq.Client, service service, inboxRepo iinboxrepo.IInboxRepository) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}

	maxRetries := viper.GetInt("rabbitmq.inbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	return &Consumer{
		client:     client,
		service:    service,
		inboxRepo:  inboxRepo,
		queue:      queue,
		maxRetries: maxRetries,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run starts consuming messages from RabbitMQ.
func (c *Consumer) Run(ctx context.Context) error {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "payment-svc"
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue.Name,
		Consumer: consumerTag,
		AutoAck:  false,
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started", "queue", c.queue.Name, "consumer_tag", consumerTag)

	maxConcurrency := viper.GetInt("consumer.max_concurrency")
	if maxConcurrency == 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	go c.consumeLoop(ctx, msgs, maxConcurrency)

	<-c.done

	return nil
}

// consumeLoop drains msgs until the consumer is stopped or the channel
// closes. The errgroup only bounds concurrency: processing failures are
// acknowledged inside processMessage and logged here, never propagated,
// so one poison or transiently failing message cannot cancel the
// messages still in flight or the ones redelivered after it.
func (c *Consumer) consumeLoop(ctx context.Context, msgs <-chan amqp.Delivery, maxConcurrency int) {
	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	for {
		select {
		case <-c.stop:
			slog.Info("Stopping consumer")
			_ = g.Wait()
			close(c.done)

			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("Message channel closed")
				_ = g.Wait()
				close(c.done)

				return
			}

			g.Go(func() error {
				if err := c.processMessage(ctx, msg); err != nil {
					slog.Error("Error processing message",
						"delivery_tag", msg.DeliveryTag,
						"message_id", msg.MessageId,
						"error", err,
					)
				}

				return nil
			})
		}
	}
}

// processMessage processes a single message. Decode failures are routed
// to the inbox dead-letter table and committed; downstream persistence
// failures are requeued for at-least-once redelivery.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	slog.Info("Received message", "delivery_tag", msg.DeliveryTag, "message_id", msg.MessageId)

	ev, err := event.Decode(msg.Body)
	if err != nil {
		var decodeErr *event.DecodeError
		if errors.As(err, &decodeErr) {
			slog.Error("Failed to decode order event, routing to inbox",
				"message_id", msg.MessageId,
				"error", err,
			)
			c.deadLetter(ctx, msg, err)

			// Reject without requeuing: the payload will never decode on
			// redelivery, the inbox worker owns it now.
			if err := msg.Nack(false, false); err != nil {
				slog.Error("Failed to nack message", "error", err)
			}
		}

		return err
	}

	if err := c.service.ProcessOrderCreated(ctx, ev); err != nil {
		slog.Error("Failed to process order event",
			"event_id", ev.EventID,
			"order_external_id", ev.Order.ExternalID,
			"error", err,
		)
		// Requeue: the broker redelivers and the idempotent derivation
		// absorbs the duplicate.
		if err := msg.Nack(false, true); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return err
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)

		return err
	}

	slog.Info("Message processed successfully",
		"event_id", ev.EventID,
		"order_external_id", ev.Order.ExternalID,
	)

	return nil
}

// deadLetter stores an undecodable payload in the inbox. Best effort:
// on inbox failure the message is still dropped to avoid a poison loop.
func (c *Consumer) deadLetter(ctx context.Context, msg amqp.Delivery, cause error) {
	now := time.Now()

	inboxMsg := inbox.InboxMessage{
		MessageID:   msg.MessageId,
		QueueName:   c.queue.Name,
		Payload:     msg.Body,
		ContentType: msg.ContentType,
		MaxRetries:  c.maxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}

	if err := c.inboxRepo.Insert(ctx, inboxMsg); err != nil {
		slog.Error("Failed to insert message into inbox",
			"message_id", msg.MessageId,
			"error", err,
		)
	}
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	// Wait for processing to finish with timeout
	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
