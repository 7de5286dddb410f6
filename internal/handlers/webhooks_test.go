package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/services"
)

func webhookTestRouter(orders services.OrderService, notifications services.NotificationService) *chi.Mux {
	r := chi.NewRouter()
	NewWebhookHandlers(orders, notifications).Routes(r)
	return r
}

func TestWebhookHandlersCourierTracking(t *testing.T) {
	svc := &fakeOrderService{order: domain.Order{
		ID:         "o1",
		StoreID:    "store-1",
		IsGuest:    true,
		GuestName:  "Asha",
		GuestPhone: "+919800000001",
	}}
	notify := &fakeNotificationService{result: services.NotificationResult{SMSSent: true}}
	r := webhookTestRouter(svc, notify)

	body := `{
		"store_id": "store-1",
		"order_id": "o1",
		"status": "delivered",
		"courier": "Delhivery",
		"tracking_id": "DL123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/courier/tracking", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if len(svc.commands) != 1 {
		t.Fatalf("expected one status command, got %d", len(svc.commands))
	}
	cmd := svc.commands[0]
	if cmd.Status != domain.OrderStatusDelivered || cmd.StoreID != "store-1" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if len(notify.commands) != 1 || notify.commands[0].PhoneNumber != "+919800000001" {
		t.Fatalf("expected customer notification, got %+v", notify.commands)
	}

	var payload struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.OrderID != "o1" || payload.Status != "DELIVERED" {
		t.Fatalf("unexpected response %+v", payload)
	}
}

func TestWebhookHandlersRejectsNonTransitStatus(t *testing.T) {
	svc := &fakeOrderService{}
	r := webhookTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/courier/tracking", strings.NewReader(`{"store_id":"store-1","order_id":"o1","status":"CANCELLED"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(svc.commands) != 0 {
		t.Fatalf("non-transit status must not reach the order service, got %+v", svc.commands)
	}
}

func TestWebhookHandlersUnknownOrder(t *testing.T) {
	svc := &fakeOrderService{err: services.ErrOrderNotFound}
	r := webhookTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/courier/tracking", strings.NewReader(`{"store_id":"store-1","order_id":"ghost","status":"SHIPPED"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWebhookHandlersNotificationFailureDoesNotBlock(t *testing.T) {
	svc := &fakeOrderService{order: domain.Order{ID: "o1", StoreID: "store-1"}}
	notify := &fakeNotificationService{err: services.ErrNotificationInvalidInput}
	r := webhookTestRouter(svc, notify)

	req := httptest.NewRequest(http.MethodPost, "/courier/tracking", strings.NewReader(`{"store_id":"store-1","order_id":"o1","status":"SHIPPED"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("tracking update must succeed despite notification failure, got %d (%s)", rr.Code, rr.Body.String())
	}
}
