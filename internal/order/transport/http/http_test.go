package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/services/ordersvc"
)

type fakeService struct {
	createErr error
	orders    map[string]*order.Order
}

func newFakeService() *fakeService {
	return &fakeService{orders: make(map[string]*order.Order)}
}

func (s *fakeService) CreateOrder(_ context.Context, description, itemName string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ord := &order.Order{
		ExternalID:  "ext-123",
		Description: description,
		ItemName:    itemName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.orders[ord.ExternalID] = ord

	return ord.ExternalID, nil
}

func (s *fakeService) GetOrder(_ context.Context, externalID string) (*order.Order, error) {
	ord, ok := s.orders[externalID]
	if !ok {
		return nil, ordersvc.ErrOrderNotFound
	}

	return ord, nil
}

func newTestTransport(svc *fakeService) *HTTPTransport {
	transport := NewHTTPTransport(svc)
	transport.RegisterRoutes()

	return transport
}

func TestCreateOrderEndpoint(t *testing.T) {
	transport := newTestTransport(newFakeService())

	body := strings.NewReader(`{"description": "Widget order", "itemName": "Widget"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	rec := httptest.NewRecorder()

	transport.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp order.Order
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ExternalID == "" {
		t.Error("expected a non-empty external id in the response")
	}
	if resp.Description != "Widget order" {
		t.Errorf("description mismatch: got %q", resp.Description)
	}
}

func TestCreateOrderValidationError(t *testing.T) {
	svc := newFakeService()
	svc.createErr = ordersvc.ErrEmptyDescription
	transport := newTestTransport(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"description": ""}`))
	rec := httptest.NewRecorder()

	transport.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderMalformedBody(t *testing.T) {
	transport := newTestTransport(newFakeService())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"description":`))
	rec := httptest.NewRecorder()

	transport.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "persistence failure",
			err:        &ordersvc.PersistenceError{ExternalID: "ext-1", Err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "publish failure",
			err:        &ordersvc.PublishError{ExternalID: "ext-1", Err: errors.New("broker down")},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.createErr = tt.err
			transport := newTestTransport(svc)

			body := strings.NewReader(`{"description": "Widget order"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
			rec := httptest.NewRecorder()

			transport.router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	svc := newFakeService()
	transport := newTestTransport(svc)

	externalID, err := svc.CreateOrder(context.Background(), "Existing Order", "Widget")
	if err != nil {
		t.Fatalf("seeding order failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+externalID, nil)
	rec := httptest.NewRecorder()

	transport.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp order.Order
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ExternalID != externalID {
		t.Errorf("external id mismatch: got %q, want %q", resp.ExternalID, externalID)
	}
	if resp.Description != "Existing Order" {
		t.Errorf("description mismatch: got %q", resp.Description)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	transport := newTestTransport(newFakeService())

	req := httptest.NewRequest(http.MethodGet, "/api/orders/no-such-order", nil)
	rec := httptest.NewRecorder()

	transport.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
