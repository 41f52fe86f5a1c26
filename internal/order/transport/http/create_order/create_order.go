package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/services/ordersvc"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, description string, itemName string) (string, error)
	GetOrder(ctx context.Context, externalID string) (*order.Order, error)
}

// Request is the create-order request body.
type Request struct {
	Description string `json:"description"`
	ItemName    string `json:"itemName"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, svc service) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	externalID, err := svc.CreateOrder(r.Context(), req.Description, req.ItemName)
	if err != nil {
		writeError(w, externalID, err)

		return
	}

	ord, err := svc.GetOrder(r.Context(), externalID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error reading back created order", "external_id", externalID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ord); err != nil {
		slog.Error("Error writing response for create order", "error", err)
	}
}

// writeError maps the workflow error taxonomy onto HTTP statuses. A
// publish failure is surfaced distinctly: the order row is durable, only
// the event is lost.
func writeError(w http.ResponseWriter, externalID string, err error) {
	var publishErr *ordersvc.PublishError

	switch {
	case errors.Is(err, ordersvc.ErrEmptyDescription):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &publishErr):
		http.Error(w, err.Error(), http.StatusBadGateway)
		slog.Error("Order persisted but event publish failed",
			"external_id", publishErr.ExternalID,
			"error", err,
		)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error creating order", "error", err)
	}
}
