package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quickfynd/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals a malformed order command.
	ErrOrderInvalidInput = errors.New("orders: invalid input")
	// ErrOrderNotFound signals the order does not exist.
	ErrOrderNotFound = errors.New("orders: not found")
	// ErrOrderForbidden signals the order belongs to a different store.
	ErrOrderForbidden = errors.New("orders: forbidden")
	// ErrOrderInvalidTransition signals a status change out of a terminal state.
	ErrOrderInvalidTransition = errors.New("orders: invalid status transition")
)

const orderEventStatusChanged = "order.status_changed"

// OrderServiceDeps bundles collaborators for the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Events OrderEventPublisher
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	clock  func() time.Time
	events OrderEventPublisher
	logger func(context.Context, string, map[string]any)
}

var _ OrderService = (*orderService)(nil)

// NewOrderService wires the order repository into an OrderService.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		orders: deps.Orders,
		clock:  func() time.Time { return clock().UTC() },
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) ListStoreOrders(ctx context.Context, storeID string) ([]Order, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, fmt.Errorf("%w: store id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, storeID string, orderID string) (Order, error) {
	storeID = strings.TrimSpace(storeID)
	orderID = strings.TrimSpace(orderID)
	if storeID == "" || orderID == "" {
		return Order{}, fmt.Errorf("%w: store id and order id are required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("load order: %w", err)
	}
	if order.StoreID != storeID {
		return Order{}, ErrOrderForbidden
	}
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd OrderStatusCommand) (Order, error) {
	status, err := normalizeOrderStatus(cmd.Status)
	if err != nil {
		return Order{}, err
	}

	order, err := s.GetOrder(ctx, cmd.StoreID, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}

	if isTerminalStatus(order.Status) && !(order.Status == OrderStatusCancelled && status == OrderStatusRefunded) {
		return Order{}, fmt.Errorf("%w: order is %s", ErrOrderInvalidTransition, order.Status)
	}

	order.Status = status
	if courier := strings.TrimSpace(cmd.Courier); courier != "" {
		order.Courier = courier
	}
	if trackingID := strings.TrimSpace(cmd.TrackingID); trackingID != "" {
		order.TrackingID = trackingID
	}
	if trackingURL := strings.TrimSpace(cmd.TrackingURL); trackingURL != "" {
		order.TrackingURL = trackingURL
	}
	// Cash on delivery settles when the parcel arrives.
	if status == OrderStatusDelivered && order.PaymentMethod == PaymentMethodCOD && !order.IsPaid {
		order.IsPaid = true
		order.PaymentStatus = "paid"
	}
	order.UpdatedAt = s.clock()

	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, fmt.Errorf("update order: %w", err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		StoreID:     order.StoreID,
		Status:      order.Status,
		OccurredAt:  order.UpdatedAt,
		Metadata: map[string]any{
			"courier":    order.Courier,
			"trackingId": order.TrackingID,
		},
	})

	return order, nil
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func normalizeOrderStatus(status OrderStatus) (OrderStatus, error) {
	normalized := OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	switch normalized {
	case OrderStatusPlaced, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, string(status))
	}
}

func isTerminalStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}
