package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/event"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/inbox"
)

type fakeInboxRepo struct {
	pending []inbox.InboxMessage
	deleted []int64
	retried []int64
}

func (r *fakeInboxRepo) Insert(_ context.Context, msg inbox.InboxMessage) error {
	r.pending = append(r.pending, msg)

	return nil
}

func (r *fakeInboxRepo) GetPendingMessages(_ context.Context, limit int) ([]inbox.InboxMessage, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}

	return r.pending, nil
}

func (r *fakeInboxRepo) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)

	return nil
}

func (r *fakeInboxRepo) UpdateRetry(_ context.Context, id int64, _ int, _ string, _ time.Time) error {
	r.retried = append(r.retried, id)

	return nil
}

type fakeService struct {
	processed  []*event.OrderCreatedEvent
	processErr error
}

func (s *fakeService) ProcessOrderCreated(_ context.Context, ev *event.OrderCreatedEvent) error {
	if s.processErr != nil {
		return s.processErr
	}
	s.processed = append(s.processed, ev)

	return nil
}

func newTestWorker(repo *fakeInboxRepo, svc *fakeService) *Worker {
	return &Worker{
		inboxRepo:    repo,
		service:      svc,
		pollInterval: time.Second,
		batchSize:    10,
		stopCh:       make(chan struct{}),
	}
}

func validPayload(t *testing.T) []byte {
	t.Helper()

	body, err := event.Encode(event.NewOrderCreated(event.OrderPayload{
		ExternalID:  "ext-1",
		Description: "Widget order",
		ItemName:    "Widget",
	}))
	if err != nil {
		t.Fatalf("failed to encode event: %v", err)
	}

	return body
}

func TestProcessMessagesRecoversDecodablePayload(t *testing.T) {
	repo := &fakeInboxRepo{pending: []inbox.InboxMessage{{
		ID:         1,
		MessageID:  "ext-1",
		Payload:    validPayload(t),
		MaxRetries: 5,
	}}}
	svc := &fakeService{}
	w := newTestWorker(repo, svc)

	w.processMessages(context.Background())

	if len(svc.processed) != 1 {
		t.Fatalf("expected one processed event, got %d", len(svc.processed))
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Errorf("expected message 1 to be deleted, got %v", repo.deleted)
	}
}

func TestProcessMessagesRetriesMalformedPayload(t *testing.T) {
	repo := &fakeInboxRepo{pending: []inbox.InboxMessage{{
		ID:         2,
		MessageID:  "ext-2",
		Payload:    []byte(`{"eventType": "order.cr`),
		RetryCount: 0,
		MaxRetries: 5,
	}}}
	svc := &fakeService{}
	w := newTestWorker(repo, svc)

	w.processMessages(context.Background())

	if len(repo.retried) != 1 || repo.retried[0] != 2 {
		t.Errorf("expected retry bookkeeping for message 2, got %v", repo.retried)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("expected no deletion before max retries, got %v", repo.deleted)
	}
}

func TestProcessMessagesDropsMalformedPayloadAfterMaxRetries(t *testing.T) {
	repo := &fakeInboxRepo{pending: []inbox.InboxMessage{{
		ID:         3,
		MessageID:  "ext-3",
		Payload:    []byte(`not json at all`),
		RetryCount: 4,
		MaxRetries: 5,
	}}}
	svc := &fakeService{}
	w := newTestWorker(repo, svc)

	w.processMessages(context.Background())

	if len(repo.deleted) != 1 || repo.deleted[0] != 3 {
		t.Errorf("expected message 3 to be dropped, got %v", repo.deleted)
	}
	if len(svc.processed) != 0 {
		t.Error("expected no event to reach the service")
	}
}

func TestProcessMessagesRetriesOnDownstreamFailure(t *testing.T) {
	repo := &fakeInboxRepo{pending: []inbox.InboxMessage{{
		ID:         4,
		MessageID:  "ext-4",
		Payload:    validPayload(t),
		MaxRetries: 5,
	}}}
	svc := &fakeService{processErr: errors.New("payments db down")}
	w := newTestWorker(repo, svc)

	w.processMessages(context.Background())

	if len(repo.retried) != 1 || repo.retried[0] != 4 {
		t.Errorf("expected retry bookkeeping for message 4, got %v", repo.retried)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("expected no deletion on downstream failure, got %v", repo.deleted)
	}
}
