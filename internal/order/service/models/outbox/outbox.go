package outbox

import (
	"time"
)

// OutboxMessage represents an order event that failed to be published
// and awaits the sweep worker.
type OutboxMessage struct {
	ID          int64
	QueueName   string
	RoutingKey  string
	Key         string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
