package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
)

type fakeCartRepo struct {
	carts map[string]domain.Cart
	err   error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]domain.Cart)}
}

func (r *fakeCartRepo) UpsertCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	if r.err != nil {
		return domain.Cart{}, r.err
	}
	r.carts[cart.UserID] = cart
	return cart, nil
}

func (r *fakeCartRepo) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	if r.err != nil {
		return domain.Cart{}, r.err
	}
	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, fakeRepoError{notFound: true}
	}
	return cart, nil
}

func (r *fakeCartRepo) Delete(_ context.Context, userID string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.carts[userID]; !ok {
		return fakeRepoError{notFound: true}
	}
	delete(r.carts, userID)
	return nil
}

func newCartServiceForTest(t *testing.T, carts *fakeCartRepo, abandoned *fakeAbandonedCartRepo) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts:          carts,
		AbandonedCarts: abandoned,
		Clock: func() time.Time {
			return time.Date(2024, time.June, 1, 14, 0, 0, 0, time.UTC)
		},
		IDGenerator: func() string { return "cart-1" },
	})
	if err != nil {
		t.Fatalf("NewCartService returned error: %v", err)
	}
	return svc
}

func TestGetOrCreateCartCreatesWhenMissing(t *testing.T) {
	carts := newFakeCartRepo()
	svc := newCartServiceForTest(t, carts, nil)

	cart, err := svc.GetOrCreateCart(context.Background(), "store-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreateCart returned error: %v", err)
	}
	if cart.ID != "cart-1" || cart.StoreID != "store-1" || cart.UserID != "user-1" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if cart.Currency != "INR" {
		t.Fatalf("expected default currency, got %q", cart.Currency)
	}

	again, err := svc.GetOrCreateCart(context.Background(), "store-1", "user-1")
	if err != nil {
		t.Fatalf("second GetOrCreateCart returned error: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected the existing cart, got %+v", again)
	}
}

func TestSetItemsTracksAbandonedCart(t *testing.T) {
	carts := newFakeCartRepo()
	abandoned := &fakeAbandonedCartRepo{carts: make(map[string]domain.AbandonedCart)}
	svc := newCartServiceForTest(t, carts, abandoned)

	cart, err := svc.SetItems(context.Background(), "store-1", "user-1", []CartItem{
		{ProductID: "p1", Name: "Mug", UnitPrice: 300, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("SetItems returned error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one item, got %+v", cart.Items)
	}

	record, err := abandoned.FindByCustomer(context.Background(), "store-1", "user-1")
	if err != nil {
		t.Fatalf("expected abandoned cart record: %v", err)
	}
	if record.Subtotal != 600 {
		t.Fatalf("expected subtotal 600, got %d", record.Subtotal)
	}
}

func TestSetItemsEmptyClearsAbandonedCart(t *testing.T) {
	carts := newFakeCartRepo()
	abandoned := &fakeAbandonedCartRepo{carts: map[string]domain.AbandonedCart{
		"store-1/user-1": {StoreID: "store-1", UserID: "user-1"},
	}}
	svc := newCartServiceForTest(t, carts, abandoned)

	if _, err := svc.SetItems(context.Background(), "store-1", "user-1", nil); err != nil {
		t.Fatalf("SetItems returned error: %v", err)
	}
	if _, err := abandoned.FindByCustomer(context.Background(), "store-1", "user-1"); err == nil {
		t.Fatalf("expected abandoned cart to be removed for an empty cart")
	}
}

func TestSetItemsValidation(t *testing.T) {
	svc := newCartServiceForTest(t, newFakeCartRepo(), nil)

	if _, err := svc.SetItems(context.Background(), "store-1", "user-1", []CartItem{
		{ProductID: "", UnitPrice: 100, Quantity: 1},
	}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput for missing product id, got %v", err)
	}
	if _, err := svc.SetItems(context.Background(), "store-1", "user-1", []CartItem{
		{ProductID: "p1", UnitPrice: 100, Quantity: -1},
	}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput for negative quantity, got %v", err)
	}
	if _, err := svc.SetItems(context.Background(), "", "user-1", nil); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput for missing store, got %v", err)
	}
}

func TestClearCartRemovesCartAndTrail(t *testing.T) {
	carts := newFakeCartRepo()
	carts.carts["user-1"] = domain.Cart{ID: "cart-1", StoreID: "store-1", UserID: "user-1"}
	abandoned := &fakeAbandonedCartRepo{carts: map[string]domain.AbandonedCart{
		"store-1/user-1": {StoreID: "store-1", UserID: "user-1"},
	}}
	svc := newCartServiceForTest(t, carts, abandoned)

	if err := svc.ClearCart(context.Background(), "store-1", "user-1"); err != nil {
		t.Fatalf("ClearCart returned error: %v", err)
	}
	if _, ok := carts.carts["user-1"]; ok {
		t.Fatalf("expected cart to be deleted")
	}
	if _, err := abandoned.FindByCustomer(context.Background(), "store-1", "user-1"); err == nil {
		t.Fatalf("expected abandoned record to be deleted")
	}

	// Clearing an absent cart is not an error.
	if err := svc.ClearCart(context.Background(), "store-1", "user-1"); err != nil {
		t.Fatalf("ClearCart on missing cart returned error: %v", err)
	}
}
