package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/interfaces/ioutboxrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
	"github.com/spf13/viper"
)

// publisher is the gateway used to republish parked events.
type publisher interface {
	Publish(cfg rabbitmq.PublishConfig) error
}

// Worker republishes order events parked in the outbox table after a
// publish failure. This is the reconcile path for the partial-failure
// state where the order row is durable but the event was lost.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages retrieves and republishes pending messages from the outbox.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.publisher.Publish(rabbitmq.PublishConfig{
			RoutingKey:  msg.RoutingKey,
			Key:         msg.Key,
			ContentType: msg.ContentType,
			Body:        msg.Payload,
		})

		if err != nil {
			newRetryCount := msg.RetryCount + 1
			if newRetryCount >= msg.MaxRetries {
				slog.Error("Outbox message exhausted retries, dropping; event will not be delivered",
					"outbox_id", msg.ID,
					"message_key", msg.Key,
					"retry_count", newRetryCount,
					"error", err,
				)
				if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
					slog.Error("Failed to delete exhausted message from outbox", "outbox_id", msg.ID, "error", err)
				}

				continue
			}

			// Update retry count and schedule next retry with exponential backoff
			backoffSeconds := math.Pow(2, float64(newRetryCount)) * 30 // 30s, 60s, 120s, 240s, etc.
			nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)

			slog.Warn("Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"retry_count", newRetryCount,
				"next_retry", nextRetryAt,
				"error", err,
			)

			if err := w.outboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, err.Error(), nextRetryAt); err != nil {
				slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}
		} else {
			// Successfully published, delete from outbox
			if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
				slog.Error("Failed to delete message from outbox after successful publish",
					"outbox_id", msg.ID,
					"error", err,
				)
			} else {
				slog.Info("Message successfully published and removed from outbox", "outbox_id", msg.ID)
			}
		}
	}
}
