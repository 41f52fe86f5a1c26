package getorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/services/ordersvc"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, externalID string) (*order.Order, error)
}

// GetOrder handles the get order request.
func GetOrder(w http.ResponseWriter, r *http.Request, svc service) {
	externalID := chi.URLParam(r, "externalId")

	ord, err := svc.GetOrder(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, ordersvc.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)

			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error getting order", "external_id", externalID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ord); err != nil {
		slog.Error("Error writing response for get order", "error", err)
	}
}
