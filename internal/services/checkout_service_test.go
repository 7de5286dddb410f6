package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/payments"
	"github.com/quickfynd/api/internal/repositories"
)

type stubCounterRepo struct {
	next    int64
	nextErr error
	calls   int
}

func (f *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	f.calls++
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	f.next += step
	return f.next, nil
}

func (f *stubCounterRepo) Configure(ctx context.Context, counterID string, cfg repositories.CounterConfig) error {
	return nil
}

type fakeShippingService struct {
	fee    int64
	err    error
	stores []string
}

func (f *fakeShippingService) GetPolicy(ctx context.Context, storeID string) (ShippingPolicy, error) {
	return ShippingPolicy{StoreID: storeID}, nil
}

func (f *fakeShippingService) SavePolicy(ctx context.Context, policy ShippingPolicy) (ShippingPolicy, error) {
	return policy, nil
}

func (f *fakeShippingService) QuoteCart(ctx context.Context, storeID string, items []CartItem) (int64, error) {
	f.stores = append(f.stores, storeID)
	if f.err != nil {
		return 0, f.err
	}
	return f.fee, nil
}

type fakePaymentProvider struct {
	intent  payments.Intent
	err     error
	request payments.IntentRequest
	calls   int
}

func (f *fakePaymentProvider) CreateIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error) {
	f.calls++
	f.request = req
	if f.err != nil {
		return payments.Intent{}, f.err
	}
	return f.intent, nil
}

func (f *fakePaymentProvider) Refund(ctx context.Context, req payments.RefundRequest) (payments.PaymentDetails, error) {
	return payments.PaymentDetails{}, errors.New("not implemented")
}

func (f *fakePaymentProvider) LookupPayment(ctx context.Context, intentID string) (payments.PaymentDetails, error) {
	return payments.PaymentDetails{}, errors.New("not implemented")
}

type captureOrderEvents struct {
	events []OrderEvent
	err    error
}

func (c *captureOrderEvents) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func newCheckoutServiceForTest(t *testing.T, deps CheckoutServiceDeps) CheckoutService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
		}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "order-fixed-id" }
	}
	svc, err := NewCheckoutService(deps)
	if err != nil {
		t.Fatalf("NewCheckoutService returned error: %v", err)
	}
	return svc
}

func TestPlaceOrderRegisteredCustomerCOD(t *testing.T) {
	orders := &fakeOrderRepo{}
	counters := &stubCounterRepo{next: 41}
	shipping := &fakeShippingService{fee: 50}
	carts := &fakeAbandonedCartRepo{carts: map[string]domain.AbandonedCart{
		"store-1/user-1": {StoreID: "store-1", UserID: "user-1"},
	}}
	events := &captureOrderEvents{}

	svc := newCheckoutServiceForTest(t, CheckoutServiceDeps{
		Orders:         orders,
		Counters:       counters,
		AbandonedCarts: carts,
		Shipping:       shipping,
		Events:         events,
	})

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		StoreID:       "store-1",
		UserID:        "user-1",
		Currency:      "usd",
		PaymentMethod: domain.PaymentMethodCOD,
		Items: []CartItem{
			{ProductID: "p1", Name: "Mug", UnitPrice: 300, Quantity: 2},
			{ProductID: "p2", Name: "Pen", UnitPrice: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	order := result.Order
	if order.Total != 750 {
		t.Fatalf("expected total 750 (subtotal 700 + fee 50), got %d", order.Total)
	}
	if order.ShippingFee != 50 || result.ShippingFee != 50 {
		t.Fatalf("expected shipping fee 50, got order=%d result=%d", order.ShippingFee, result.ShippingFee)
	}
	if order.Status != domain.OrderStatusPlaced {
		t.Fatalf("expected ORDER_PLACED status, got %s", order.Status)
	}
	if order.Currency != "USD" {
		t.Fatalf("expected normalised currency USD, got %q", order.Currency)
	}
	if order.OrderNumber != "QF-2024-000042" {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.IsGuest {
		t.Fatalf("registered checkout must not mark the order as guest")
	}
	if result.ClientSecret != "" {
		t.Fatalf("COD checkout must not return a client secret")
	}
	if len(orders.inserted) != 1 {
		t.Fatalf("expected one inserted order, got %d", len(orders.inserted))
	}
	if _, err := carts.FindByCustomer(context.Background(), "store-1", "user-1"); err == nil {
		t.Fatalf("expected abandoned cart to be cleared")
	}
	if len(events.events) != 1 || events.events[0].Type != "order.placed" {
		t.Fatalf("expected one order.placed event, got %+v", events.events)
	}
}

func TestPlaceOrderGuestCardPayment(t *testing.T) {
	orders := &fakeOrderRepo{}
	provider := &fakePaymentProvider{intent: payments.Intent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Status:       payments.StatusPending,
	}}

	svc := newCheckoutServiceForTest(t, CheckoutServiceDeps{
		Orders:   orders,
		Counters: &stubCounterRepo{},
		Shipping: &fakeShippingService{fee: 0},
		Payments: provider,
	})

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		StoreID:       "store-1",
		Guest:         &GuestContact{Name: "  Dana  ", Email: " dana@example.com "},
		Currency:      "USD",
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []CartItem{{ProductID: "p1", UnitPrice: 500, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if !result.Order.IsGuest {
		t.Fatalf("expected guest order")
	}
	if result.Order.GuestName != "Dana" || result.Order.GuestEmail != "dana@example.com" {
		t.Fatalf("expected trimmed guest contact, got %q %q", result.Order.GuestName, result.Order.GuestEmail)
	}
	if result.ClientSecret != "pi_1_secret" {
		t.Fatalf("expected PSP client secret, got %q", result.ClientSecret)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one intent call, got %d", provider.calls)
	}
	if provider.request.Amount != 500 {
		t.Fatalf("expected intent amount 500, got %d", provider.request.Amount)
	}
	if !strings.HasSuffix(provider.request.IdempotencyKey, "-intent") {
		t.Fatalf("expected order-scoped idempotency key, got %q", provider.request.IdempotencyKey)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := newCheckoutServiceForTest(t, CheckoutServiceDeps{
		Orders:   &fakeOrderRepo{},
		Counters: &stubCounterRepo{},
		Shipping: &fakeShippingService{},
	})

	cases := []struct {
		name string
		cmd  PlaceOrderCommand
	}{
		{
			name: "missing store",
			cmd: PlaceOrderCommand{
				UserID:        "user-1",
				Currency:      "USD",
				PaymentMethod: domain.PaymentMethodCOD,
				Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
			},
		},
		{
			name: "empty cart",
			cmd: PlaceOrderCommand{
				StoreID:       "store-1",
				UserID:        "user-1",
				Currency:      "USD",
				PaymentMethod: domain.PaymentMethodCOD,
			},
		},
		{
			name: "zero quantity item",
			cmd: PlaceOrderCommand{
				StoreID:       "store-1",
				UserID:        "user-1",
				Currency:      "USD",
				PaymentMethod: domain.PaymentMethodCOD,
				Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 0}},
			},
		},
		{
			name: "missing currency",
			cmd: PlaceOrderCommand{
				StoreID:       "store-1",
				UserID:        "user-1",
				PaymentMethod: domain.PaymentMethodCOD,
				Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
			},
		},
		{
			name: "guest without contact",
			cmd: PlaceOrderCommand{
				StoreID:       "store-1",
				Currency:      "USD",
				PaymentMethod: domain.PaymentMethodCOD,
				Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
			},
		},
		{
			name: "unsupported payment method",
			cmd: PlaceOrderCommand{
				StoreID:       "store-1",
				UserID:        "user-1",
				Currency:      "USD",
				PaymentMethod: domain.PaymentMethod("CRYPTO"),
				Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.PlaceOrder(context.Background(), tc.cmd); !errors.Is(err, ErrCheckoutInvalidInput) {
				t.Fatalf("expected ErrCheckoutInvalidInput, got %v", err)
			}
		})
	}
}

func TestPlaceOrderPaymentFailureAbortsBeforePersist(t *testing.T) {
	orders := &fakeOrderRepo{}
	provider := &fakePaymentProvider{err: errors.New("psp down")}

	svc := newCheckoutServiceForTest(t, CheckoutServiceDeps{
		Orders:   orders,
		Counters: &stubCounterRepo{},
		Shipping: &fakeShippingService{},
		Payments: provider,
	})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		StoreID:       "store-1",
		UserID:        "user-1",
		Currency:      "USD",
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
	})
	if !errors.Is(err, ErrCheckoutPaymentFailed) {
		t.Fatalf("expected ErrCheckoutPaymentFailed, got %v", err)
	}
	if len(orders.inserted) != 0 {
		t.Fatalf("order must not be persisted when the intent fails, got %d inserts", len(orders.inserted))
	}
}

func TestPlaceOrderPublishFailureDoesNotFailCheckout(t *testing.T) {
	events := &captureOrderEvents{err: errors.New("pubsub unavailable")}
	var logged []string

	svc := newCheckoutServiceForTest(t, CheckoutServiceDeps{
		Orders:   &fakeOrderRepo{},
		Counters: &stubCounterRepo{},
		Shipping: &fakeShippingService{},
		Events:   events,
		Logger: func(ctx context.Context, event string, fields map[string]any) {
			logged = append(logged, event)
		},
	})

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		StoreID:       "store-1",
		UserID:        "user-1",
		Currency:      "USD",
		PaymentMethod: domain.PaymentMethodCOD,
		Items:         []CartItem{{ProductID: "p1", UnitPrice: 100, Quantity: 1}},
	}); err != nil {
		t.Fatalf("publish failures must not fail checkout: %v", err)
	}

	found := false
	for _, event := range logged {
		if event == "order.event.publish.failed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected publish failure to be logged, got %v", logged)
	}
}
