package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxOrderBodySize = 16 * 1024

// OrderHandlers serves the seller order dashboard.
type OrderHandlers struct {
	orders        services.OrderService
	notifications services.NotificationService
}

// NewOrderHandlers constructs order handlers. The notification service is
// optional; when present, status changes fan out to the customer.
func NewOrderHandlers(orders services.OrderService, notifications services.NotificationService) *OrderHandlers {
	return &OrderHandlers{orders: orders, notifications: notifications}
}

// StoreRoutes registers seller-facing order endpoints.
func (h *OrderHandlers) StoreRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Patch("/orders/{orderID}/status", h.updateStatus)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orders, err := h.orders.ListStoreOrders(ctx, identity.UID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, identity.UID, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

type orderStatusRequest struct {
	Status      string `json:"status"`
	Courier     string `json:"courier"`
	TrackingID  string `json:"tracking_id"`
	TrackingURL string `json:"tracking_url"`
	Notify      *bool  `json:"notify"`
}

type orderStatusResponse struct {
	Order        orderPayload `json:"order"`
	Notification *struct {
		SMSSent    bool   `json:"sms_sent"`
		EmailSent  bool   `json:"email_sent"`
		SkipReason string `json:"skip_reason,omitempty"`
	} `json:"notification,omitempty"`
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req orderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.OrderStatusCommand{
		StoreID:     identity.UID,
		OrderID:     strings.TrimSpace(chi.URLParam(r, "orderID")),
		Status:      services.OrderStatus(req.Status),
		Courier:     req.Courier,
		TrackingID:  req.TrackingID,
		TrackingURL: req.TrackingURL,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	resp := orderStatusResponse{Order: buildOrderPayload(order)}

	notify := req.Notify == nil || *req.Notify
	if notify && h.notifications != nil {
		result, notifyErr := h.notifications.NotifyOrderStatus(ctx, notificationCommandForOrder(order))
		if notifyErr == nil {
			resp.Notification = &struct {
				SMSSent    bool   `json:"sms_sent"`
				EmailSent  bool   `json:"email_sent"`
				SkipReason string `json:"skip_reason,omitempty"`
			}{
				SMSSent:    result.SMSSent,
				EmailSent:  result.EmailSent,
				SkipReason: result.SkipReason,
			}
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func notificationCommandForOrder(order services.Order) services.OrderNotificationCommand {
	name := order.CustomerName
	email := order.CustomerEmail
	phone := ""
	if order.IsGuest {
		if name == "" {
			name = order.GuestName
		}
		if email == "" {
			email = order.GuestEmail
		}
		phone = order.GuestPhone
	}
	if phone == "" && order.ShippingAddress != nil {
		phone = order.ShippingAddress.Phone
	}

	return services.OrderNotificationCommand{
		OrderID:      order.ID,
		Status:       order.Status,
		CustomerName: name,
		PhoneNumber:  phone,
		Email:        email,
		TotalAmount:  order.Total,
		Currency:     order.Currency,
		Courier:      order.Courier,
		TrackingID:   order.TrackingID,
		TrackingURL:  order.TrackingURL,
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("permission_denied", "order not owned by store", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("failed_precondition", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve order request", http.StatusInternalServerError))
	}
}
