package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxWebhookBodySize = 32 * 1024

// WebhookHandlers receives courier callbacks. Signature verification happens
// in the webhook group middleware before these handlers run.
type WebhookHandlers struct {
	orders        services.OrderService
	notifications services.NotificationService
}

// NewWebhookHandlers constructs webhook handlers. The notification service is
// optional; when present, tracking updates notify the customer.
func NewWebhookHandlers(orders services.OrderService, notifications services.NotificationService) *WebhookHandlers {
	return &WebhookHandlers{orders: orders, notifications: notifications}
}

// Routes registers webhook endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/courier/tracking", h.courierTracking)
}

type courierTrackingRequest struct {
	StoreID     string `json:"store_id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Courier     string `json:"courier"`
	TrackingID  string `json:"tracking_id"`
	TrackingURL string `json:"tracking_url"`
}

func (h *WebhookHandlers) courierTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxWebhookBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req courierTrackingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	status := services.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	// Couriers only report transit states; other transitions stay seller-driven.
	if status != services.OrderStatusShipped && status != services.OrderStatusDelivered {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "status must be SHIPPED or DELIVERED", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.OrderStatusCommand{
		StoreID:     req.StoreID,
		OrderID:     req.OrderID,
		Status:      status,
		Courier:     req.Courier,
		TrackingID:  req.TrackingID,
		TrackingURL: req.TrackingURL,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	if h.notifications != nil {
		// Courier updates notify the customer best-effort; the tracking
		// state change already succeeded.
		_, _ = h.notifications.NotifyOrderStatus(ctx, notificationCommandForOrder(order))
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
}
