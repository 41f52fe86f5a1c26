package inbox

import (
	"time"
)

// InboxMessage represents a dead-lettered event that failed to decode
// and awaits re-inspection by the inbox worker.
type InboxMessage struct {
	ID          int64
	MessageID   string
	QueueName   string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
