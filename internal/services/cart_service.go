package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/repositories"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// CartServiceDeps wires the repositories for cart operations.
type CartServiceDeps struct {
	Carts           repositories.CartRepository
	AbandonedCarts  repositories.AbandonedCartRepository
	Clock           func() time.Time
	DefaultCurrency string
	IDGenerator     func() string
	Logger          func(context.Context, string, map[string]any)
}

type cartService struct {
	carts     repositories.CartRepository
	abandoned repositories.AbandonedCartRepository
	newID     func() string
	now       func() time.Time
	currency  string
	logger    func(context.Context, string, map[string]any)
}

var _ CartService = (*cartService)(nil)

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.DefaultCurrency))
	if currency == "" {
		currency = "INR"
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:     deps.Carts,
		abandoned: deps.AbandonedCarts,
		newID:     idGen,
		now:       func() time.Time { return clock().UTC() },
		currency:  currency,
		logger:    logger,
	}, nil
}

func (s *cartService) GetOrCreateCart(ctx context.Context, storeID string, userID string) (Cart, error) {
	storeID, userID, err := cartScope(storeID, userID)
	if err != nil {
		return Cart{}, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !isRepoNotFound(err) {
		return Cart{}, err
	}

	cart = Cart{
		ID:        s.newID(),
		StoreID:   storeID,
		UserID:    userID,
		Currency:  s.currency,
		UpdatedAt: s.now(),
	}
	return s.carts.UpsertCart(ctx, cart)
}

func (s *cartService) SetItems(ctx context.Context, storeID string, userID string, items []CartItem) (Cart, error) {
	storeID, userID, err := cartScope(storeID, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := validateCartItems(items); err != nil {
		return Cart{}, err
	}

	cart, err := s.GetOrCreateCart(ctx, storeID, userID)
	if err != nil {
		return Cart{}, err
	}

	now := s.now()
	cart.Items = cloneCartItems(items)
	cart.UpdatedAt = now

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return Cart{}, err
	}

	s.trackAbandonedCart(ctx, saved, now)
	return saved, nil
}

func (s *cartService) ClearCart(ctx context.Context, storeID string, userID string) error {
	storeID, userID, err := cartScope(storeID, userID)
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, userID); err != nil && !isRepoNotFound(err) {
		return err
	}
	s.dropAbandonedCart(ctx, storeID, userID)
	return nil
}

// trackAbandonedCart mirrors the cart into the abandoned-cart collection so
// the dashboard can surface customers who walked away mid-checkout. A cart
// emptied by the customer removes the record instead.
func (s *cartService) trackAbandonedCart(ctx context.Context, cart Cart, now time.Time) {
	if s.abandoned == nil {
		return
	}
	if len(cart.Items) == 0 {
		s.dropAbandonedCart(ctx, cart.StoreID, cart.UserID)
		return
	}
	record := domain.AbandonedCart{
		ID:         cart.StoreID + "/" + cart.UserID,
		StoreID:    cart.StoreID,
		UserID:     cart.UserID,
		Items:      cloneCartItems(cart.Items),
		Subtotal:   cartSubtotal(cart.Items),
		LastSeenAt: now,
		CreatedAt:  now,
	}
	if _, err := s.abandoned.Upsert(ctx, record); err != nil {
		s.logger(ctx, "cart.abandoned.track.failed", map[string]any{
			"store": cart.StoreID,
			"user":  cart.UserID,
			"error": err.Error(),
		})
	}
}

func (s *cartService) dropAbandonedCart(ctx context.Context, storeID string, userID string) {
	if s.abandoned == nil {
		return
	}
	if err := s.abandoned.Delete(ctx, storeID, userID); err != nil && !isRepoNotFound(err) {
		s.logger(ctx, "cart.abandoned.drop.failed", map[string]any{
			"store": storeID,
			"user":  userID,
			"error": err.Error(),
		})
	}
}

func cartScope(storeID string, userID string) (string, string, error) {
	storeID = strings.TrimSpace(storeID)
	userID = strings.TrimSpace(userID)
	if storeID == "" {
		return "", "", fmt.Errorf("%w: store id is required", ErrCartInvalidInput)
	}
	if userID == "" {
		return "", "", fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	return storeID, userID, nil
}

func validateCartItems(items []CartItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d is missing a product id", ErrCartInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrCartInvalidInput, i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d price cannot be negative", ErrCartInvalidInput, i)
		}
	}
	return nil
}

func cloneCartItems(items []CartItem) []CartItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
