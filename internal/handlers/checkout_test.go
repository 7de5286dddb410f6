package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/services"
)

type fakeCheckoutService struct {
	commands []services.PlaceOrderCommand
	result   services.PlaceOrderResult
	err      error
}

func (f *fakeCheckoutService) PlaceOrder(_ context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
	if f.err != nil {
		return services.PlaceOrderResult{}, f.err
	}
	f.commands = append(f.commands, cmd)
	return f.result, nil
}

func checkoutTestRouter(svc services.CheckoutService) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/checkout", NewCheckoutHandlers(svc).Routes)
	return r
}

func TestCheckoutHandlersGuestOrder(t *testing.T) {
	svc := &fakeCheckoutService{result: services.PlaceOrderResult{
		Order:       domain.Order{ID: "o1", OrderNumber: "QF-2026-000001", Status: domain.OrderStatusPlaced},
		ShippingFee: 4900,
	}}
	r := checkoutTestRouter(svc)

	body := `{
		"store_id": "store-1",
		"guest": {"name": "Asha", "email": "asha@example.com", "phone": "+919800000001"},
		"items": [{"product_id": "p1", "name": "Tee", "unit_price": 49900, "quantity": 1}],
		"currency": "INR",
		"payment_method": "cod",
		"shipping_address": {"name": "Asha", "city": "Pune", "postal_code": "411001", "country": "IN"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if len(svc.commands) != 1 {
		t.Fatalf("expected one command, got %d", len(svc.commands))
	}
	cmd := svc.commands[0]
	if cmd.UserID != "" {
		t.Fatalf("guest checkout must not carry a user id, got %q", cmd.UserID)
	}
	if cmd.Guest == nil || cmd.Guest.Email != "asha@example.com" {
		t.Fatalf("guest contact not forwarded: %+v", cmd.Guest)
	}
	if cmd.PaymentMethod != domain.PaymentMethodCOD {
		t.Fatalf("expected payment method normalized to COD, got %q", cmd.PaymentMethod)
	}
	if cmd.ShippingAddress == nil || cmd.ShippingAddress.City != "Pune" {
		t.Fatalf("shipping address not forwarded: %+v", cmd.ShippingAddress)
	}

	var payload struct {
		Order struct {
			OrderNumber string `json:"order_number"`
		} `json:"order"`
		ShippingFee  int64  `json:"shipping_fee"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Order.OrderNumber != "QF-2026-000001" || payload.ShippingFee != 4900 {
		t.Fatalf("unexpected response %+v", payload)
	}
	if payload.ClientSecret != "" {
		t.Fatalf("COD order must not return a client secret")
	}
}

func TestCheckoutHandlersAuthenticatedOrderIgnoresGuestBlock(t *testing.T) {
	svc := &fakeCheckoutService{result: services.PlaceOrderResult{Order: domain.Order{ID: "o1"}}}
	r := checkoutTestRouter(svc)

	body := `{"store_id":"store-1","guest":{"name":"Spoof"},"items":[{"product_id":"p1","quantity":1}],"payment_method":"CARD"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req = req.WithContext(sellerContext(req.Context(), "user-7"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	cmd := svc.commands[0]
	if cmd.UserID != "user-7" {
		t.Fatalf("expected user id from identity, got %q", cmd.UserID)
	}
	if cmd.Guest != nil {
		t.Fatalf("authenticated checkout must drop the guest block, got %+v", cmd.Guest)
	}
}

func TestCheckoutHandlersCardOrderReturnsClientSecret(t *testing.T) {
	svc := &fakeCheckoutService{result: services.PlaceOrderResult{
		Order:        domain.Order{ID: "o1", PaymentMethod: domain.PaymentMethodCard},
		ClientSecret: "pi_123_secret_456",
	}}
	r := checkoutTestRouter(svc)

	body := `{"store_id":"store-1","items":[{"product_id":"p1","quantity":1}],"payment_method":"CARD"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	var payload struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.ClientSecret != "pi_123_secret_456" {
		t.Fatalf("expected client secret, got %q", payload.ClientSecret)
	}
}

func TestCheckoutHandlersPaymentFailure(t *testing.T) {
	svc := &fakeCheckoutService{err: services.ErrCheckoutPaymentFailed}
	r := checkoutTestRouter(svc)

	body := `{"store_id":"store-1","items":[{"product_id":"p1","quantity":1}],"payment_method":"CARD"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestCheckoutHandlersInvalidInput(t *testing.T) {
	svc := &fakeCheckoutService{err: services.ErrCheckoutInvalidInput}
	r := checkoutTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"store_id":""}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
