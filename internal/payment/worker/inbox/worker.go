package inbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/interfaces/iinboxrepo"
	"github.com/spf13/viper"
)

// service represents the service layer interface.
type service interface {
	ProcessOrderCreated(ctx context.Context, ev *event.OrderCreatedEvent) error
}

// Worker re-inspects dead-lettered messages from the inbox table. A
// payload may decode on a later attempt after a producer fix rolls out;
// one that never does is dropped once max retries are exhausted.
type Worker struct {
	inboxRepo    iinboxrepo.IInboxRepository
	service      service
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
}

// NewWorker creates a new inbox worker.
func NewWorker(
	inboxRepo iinboxrepo.IInboxRepository,
	service service,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.inbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 30
	}

	batchSize := viper.GetInt("rabbitmq.inbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		inboxRepo:    inboxRepo,
		service:      service,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")

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

// processMessages retrieves and processes pending messages from the inbox.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.inboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from inbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing inbox messages", "count", len(messages))

	for _, msg := range messages {
		ev, err := event.Decode(msg.Payload)
		if err != nil {
			slog.Error("Failed to decode order event from inbox", "error", err, "inbox_id", msg.ID)

			// Still malformed: increment retry or drop once max retries reached.
			newRetryCount := msg.RetryCount + 1
			if newRetryCount >= msg.MaxRetries {
				slog.Warn("Max retries reached for malformed message, deleting",
					"inbox_id", msg.ID,
					"message_id", msg.MessageID,
				)
				if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
					slog.Error("Failed to delete message from inbox", "inbox_id", msg.ID, "error", err)
				}
			} else {
				w.scheduleRetry(ctx, msg.ID, newRetryCount, err)
			}
			continue
		}

		if err := w.service.ProcessOrderCreated(ctx, ev); err != nil {
			slog.Warn("Failed to process message from inbox, will retry",
				"inbox_id", msg.ID,
				"event_id", ev.EventID,
				"error", err,
			)
			w.scheduleRetry(ctx, msg.ID, msg.RetryCount+1, err)

			continue
		}

		if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from inbox after successful processing",
				"inbox_id", msg.ID,
				"error", err,
			)
		} else {
			slog.Info("Message successfully processed and removed from inbox",
				"inbox_id", msg.ID,
				"message_id", msg.MessageID,
				"event_id", ev.EventID,
			)
		}
	}
}

// scheduleRetry updates retry bookkeeping with exponential backoff.
func (w *Worker) scheduleRetry(ctx context.Context, id int64, retryCount int, cause error) {
	backoffSeconds := math.Pow(2, float64(retryCount)) * 30 // 30s, 60s, 120s, 240s, etc.
	nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)

	if err := w.inboxRepo.UpdateRetry(ctx, id, retryCount, cause.Error(), nextRetryAt); err != nil {
		slog.Error("Failed to update retry information", "inbox_id", id, "error", err)
	}
}
