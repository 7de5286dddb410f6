package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxNotificationBodySize = 16 * 1024

// NotificationHandlers serves the internal notification callback used by
// queue workers to fan order status changes out to customers.
type NotificationHandlers struct {
	svc services.NotificationService
}

// NewNotificationHandlers constructs notification handlers backed by the provided service.
func NewNotificationHandlers(svc services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{svc: svc}
}

// InternalRoutes registers the service-to-service notification endpoints.
func (h *NotificationHandlers) InternalRoutes(r chi.Router) {
	r.Post("/notifications/order-status", h.notifyOrderStatus)
}

type orderNotificationRequest struct {
	OrderID      string `json:"order_id"`
	Status       string `json:"status"`
	CustomerName string `json:"customer_name"`
	PhoneNumber  string `json:"phone_number"`
	Email        string `json:"email"`
	TotalAmount  int64  `json:"total_amount"`
	Currency     string `json:"currency"`
	Courier      string `json:"courier"`
	TrackingID   string `json:"tracking_id"`
	TrackingURL  string `json:"tracking_url"`
}

type orderNotificationResponse struct {
	SMSSent    bool   `json:"sms_sent"`
	EmailSent  bool   `json:"email_sent"`
	SMSID      string `json:"sms_id,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

func (h *NotificationHandlers) notifyOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxNotificationBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req orderNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.svc.NotifyOrderStatus(ctx, services.OrderNotificationCommand{
		OrderID:      req.OrderID,
		Status:       services.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		TotalAmount:  req.TotalAmount,
		Currency:     req.Currency,
		Courier:      req.Courier,
		TrackingID:   req.TrackingID,
		TrackingURL:  req.TrackingURL,
	})
	if err != nil {
		writeNotificationError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderNotificationResponse{
		SMSSent:    result.SMSSent,
		EmailSent:  result.EmailSent,
		SMSID:      result.SMSID,
		SkipReason: result.SkipReason,
	})
}

func writeNotificationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotificationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to dispatch notification", http.StatusInternalServerError))
	}
}
