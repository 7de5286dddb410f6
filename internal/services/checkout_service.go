package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quickfynd/api/internal/payments"
	"github.com/quickfynd/api/internal/repositories"
)

var (
	// ErrCheckoutInvalidInput signals a malformed place-order command.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutPaymentFailed signals the PSP rejected the payment intent.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment intent failed")
)

const orderEventPlaced = "order.placed"

// OrderEventPublisher publishes order domain events for downstream consumers,
// notification fan-out included.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type        string
	OrderID     string
	OrderNumber string
	StoreID     string
	Status      OrderStatus
	OccurredAt  time.Time
	Metadata    map[string]any
}

// CheckoutServiceDeps bundles collaborators required to construct the checkout service.
type CheckoutServiceDeps struct {
	Orders         repositories.OrderRepository
	Counters       repositories.CounterRepository
	AbandonedCarts repositories.AbandonedCartRepository
	Shipping       ShippingService
	Payments       payments.Provider
	UnitOfWork     repositories.UnitOfWork
	Clock          func() time.Time
	IDGenerator    func() string
	Events         OrderEventPublisher
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	orders         repositories.OrderRepository
	counters       repositories.CounterRepository
	abandonedCarts repositories.AbandonedCartRepository
	shipping       ShippingService
	payments       payments.Provider
	unitOfWork     repositories.UnitOfWork
	clock          func() time.Time
	newID          func() string
	events         OrderEventPublisher
	logger         func(context.Context, string, map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService wires dependencies into a concrete CheckoutService implementation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("checkout service: counter repository is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("checkout service: shipping service is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		orders:         deps.Orders,
		counters:       deps.Counters,
		abandonedCarts: deps.AbandonedCarts,
		shipping:       deps.Shipping,
		payments:       deps.Payments,
		unitOfWork:     unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	cmd.StoreID = strings.TrimSpace(cmd.StoreID)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	if cmd.StoreID == "" {
		return PlaceOrderResult{}, fmt.Errorf("%w: store id is required", ErrCheckoutInvalidInput)
	}
	if err := validateOrderItems(cmd.Items); err != nil {
		return PlaceOrderResult{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		return PlaceOrderResult{}, fmt.Errorf("%w: currency is required", ErrCheckoutInvalidInput)
	}
	switch cmd.PaymentMethod {
	case PaymentMethodCOD:
	case PaymentMethodCard:
		if s.payments == nil {
			return PlaceOrderResult{}, fmt.Errorf("%w: card payments are not configured", ErrCheckoutInvalidInput)
		}
	default:
		return PlaceOrderResult{}, fmt.Errorf("%w: unsupported payment method %q", ErrCheckoutInvalidInput, cmd.PaymentMethod)
	}

	isGuest := cmd.UserID == ""
	var guest GuestContact
	if isGuest {
		if cmd.Guest == nil {
			return PlaceOrderResult{}, fmt.Errorf("%w: guest contact is required without a user id", ErrCheckoutInvalidInput)
		}
		guest = GuestContact{
			Name:  strings.TrimSpace(cmd.Guest.Name),
			Email: strings.TrimSpace(cmd.Guest.Email),
			Phone: strings.TrimSpace(cmd.Guest.Phone),
		}
		if guest.Name == "" {
			return PlaceOrderResult{}, fmt.Errorf("%w: guest name is required", ErrCheckoutInvalidInput)
		}
	}

	shippingFee, err := s.shipping.QuoteCart(ctx, cmd.StoreID, cmd.Items)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	now := s.clock()
	order := Order{
		ID:              s.newID(),
		StoreID:         cmd.StoreID,
		UserID:          cmd.UserID,
		IsGuest:         isGuest,
		GuestName:       guest.Name,
		GuestEmail:      guest.Email,
		GuestPhone:      guest.Phone,
		Status:          OrderStatusPlaced,
		Currency:        currency,
		Total:           cartSubtotal(cmd.Items) + shippingFee,
		ShippingFee:     shippingFee,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   string(payments.StatusPending),
		Items:           buildOrderItems(cmd.Items),
		ShippingAddress: cloneAddress(cmd.ShippingAddress),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	order.OrderNumber = number

	var clientSecret string
	if cmd.PaymentMethod == PaymentMethodCard {
		intent, err := s.payments.CreateIntent(ctx, payments.IntentRequest{
			OrderID:        order.ID,
			Amount:         order.Total,
			Currency:       currency,
			CustomerEmail:  guest.Email,
			Description:    "Order " + order.OrderNumber,
			IdempotencyKey: order.ID + "-intent",
			Metadata: map[string]string{
				"orderNumber": order.OrderNumber,
				"storeId":     order.StoreID,
			},
		})
		if err != nil {
			return PlaceOrderResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
		}
		clientSecret = intent.ClientSecret
		order.PaymentStatus = string(intent.Status)
	}

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}

	s.clearAbandonedCart(ctx, order)

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventPlaced,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		StoreID:     order.StoreID,
		Status:      order.Status,
		OccurredAt:  now,
		Metadata: map[string]any{
			"paymentMethod": string(order.PaymentMethod),
			"total":         order.Total,
		},
	})

	return PlaceOrderResult{
		Order:        order,
		ShippingFee:  shippingFee,
		ClientSecret: clientSecret,
	}, nil
}

func (s *checkoutService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, "orders", 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QF-%04d-%06d", now.Year(), seq), nil
}

// clearAbandonedCart is best effort; a missing record is the common case when
// the customer never abandoned a cart.
func (s *checkoutService) clearAbandonedCart(ctx context.Context, order Order) {
	if s.abandonedCarts == nil || order.UserID == "" {
		return
	}
	if err := s.abandonedCarts.Delete(ctx, order.StoreID, order.UserID); err != nil && !isRepoNotFound(err) {
		s.logger(ctx, "checkout.abandoned_cart.clear.failed", map[string]any{
			"store": order.StoreID,
			"user":  order.UserID,
			"error": err.Error(),
		})
	}
}

func (s *checkoutService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *checkoutService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsConflict():
			return fmt.Errorf("checkout: order already exists: %w", err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("checkout: repository unavailable: %w", err)
		}
	}

	return err
}

func validateOrderItems(items []CartItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: cart must contain at least one item", ErrCheckoutInvalidInput)
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d is missing a product id", ErrCheckoutInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrCheckoutInvalidInput, i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d price cannot be negative", ErrCheckoutInvalidInput, i)
		}
	}
	return nil
}

func cartSubtotal(items []CartItem) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return subtotal
}

func buildOrderItems(items []CartItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItem{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func cloneAddress(addr *Address) *Address {
	if addr == nil {
		return nil
	}
	clone := *addr
	return &clone
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
