package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/repositories"
)

type stubOrderStore struct {
	byID    map[string]domain.Order
	byStore map[string][]domain.Order
	updated []domain.Order
	err     error
}

func (s *stubOrderStore) Insert(context.Context, domain.Order) error { return nil }

func (s *stubOrderStore) Update(_ context.Context, order domain.Order) error {
	if s.err != nil {
		return s.err
	}
	if s.byID == nil {
		s.byID = make(map[string]domain.Order)
	}
	s.byID[order.ID] = order
	s.updated = append(s.updated, order)
	return nil
}

func (s *stubOrderStore) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	order, ok := s.byID[orderID]
	if !ok {
		return domain.Order{}, fakeRepoError{notFound: true}
	}
	return order, nil
}

func (s *stubOrderStore) ListByStore(_ context.Context, storeID string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byStore[storeID], nil
}

func (s *stubOrderStore) ListByCustomer(context.Context, string, string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) List(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	return domain.CursorPage[domain.Order]{}, nil
}

func newOrderServiceForTest(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
		}
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func TestOrderServiceUpdateStatusShippedRecordsTracking(t *testing.T) {
	store := &stubOrderStore{byID: map[string]domain.Order{
		"order-1": {
			ID:            "order-1",
			OrderNumber:   "QF-2026-000021",
			StoreID:       "store-1",
			Status:        domain.OrderStatusConfirmed,
			PaymentMethod: domain.PaymentMethodCard,
		},
	}}
	events := &captureOrderEvents{}
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: store, Events: events})

	updated, err := svc.UpdateStatus(context.Background(), OrderStatusCommand{
		StoreID:     "store-1",
		OrderID:     "order-1",
		Status:      "shipped",
		Courier:     "Delhivery",
		TrackingID:  "DL123456",
		TrackingURL: "https://track.example/DL123456",
	})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Errorf("expected SHIPPED, got %s", updated.Status)
	}
	if updated.Courier != "Delhivery" || updated.TrackingID != "DL123456" {
		t.Errorf("tracking not recorded: %+v", updated)
	}
	if updated.UpdatedAt != time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC) {
		t.Errorf("expected updatedAt stamped, got %s", updated.UpdatedAt)
	}
	if len(store.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(store.updated))
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.Type != "order.status_changed" || event.OrderNumber != "QF-2026-000021" {
		t.Errorf("unexpected event %+v", event)
	}
	if event.Metadata["courier"] != "Delhivery" {
		t.Errorf("expected courier metadata, got %v", event.Metadata)
	}
}

func TestOrderServiceUpdateStatusDeliveredSettlesCOD(t *testing.T) {
	store := &stubOrderStore{byID: map[string]domain.Order{
		"order-2": {
			ID:            "order-2",
			StoreID:       "store-1",
			Status:        domain.OrderStatusShipped,
			PaymentMethod: domain.PaymentMethodCOD,
		},
	}}
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: store})

	updated, err := svc.UpdateStatus(context.Background(), OrderStatusCommand{
		StoreID: "store-1",
		OrderID: "order-2",
		Status:  domain.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if !updated.IsPaid || updated.PaymentStatus != "paid" {
		t.Errorf("expected COD order marked paid on delivery, got %+v", updated)
	}
}

func TestOrderServiceUpdateStatusRejectsTerminalTransitions(t *testing.T) {
	store := &stubOrderStore{byID: map[string]domain.Order{
		"order-3": {ID: "order-3", StoreID: "store-1", Status: domain.OrderStatusDelivered},
		"order-4": {ID: "order-4", StoreID: "store-1", Status: domain.OrderStatusCancelled},
	}}
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: store})

	_, err := svc.UpdateStatus(context.Background(), OrderStatusCommand{
		StoreID: "store-1",
		OrderID: "order-3",
		Status:  domain.OrderStatusShipped,
	})
	if !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("expected ErrOrderInvalidTransition, got %v", err)
	}

	refunded, err := svc.UpdateStatus(context.Background(), OrderStatusCommand{
		StoreID: "store-1",
		OrderID: "order-4",
		Status:  domain.OrderStatusRefunded,
	})
	if err != nil {
		t.Fatalf("cancelled order should accept refund, got %v", err)
	}
	if refunded.Status != domain.OrderStatusRefunded {
		t.Errorf("expected REFUNDED, got %s", refunded.Status)
	}
}

func TestOrderServiceGetOrderScopesToStore(t *testing.T) {
	store := &stubOrderStore{byID: map[string]domain.Order{
		"order-5": {ID: "order-5", StoreID: "store-2"},
	}}
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: store})

	if _, err := svc.GetOrder(context.Background(), "store-1", "order-5"); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected ErrOrderForbidden, got %v", err)
	}
	if _, err := svc.GetOrder(context.Background(), "store-1", "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderServiceUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: &stubOrderStore{}})

	_, err := svc.UpdateStatus(context.Background(), OrderStatusCommand{
		StoreID: "store-1",
		OrderID: "order-1",
		Status:  "TELEPORTED",
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestOrderServiceListStoreOrders(t *testing.T) {
	store := &stubOrderStore{byStore: map[string][]domain.Order{
		"store-1": {{ID: "order-1"}, {ID: "order-2"}},
	}}
	svc := newOrderServiceForTest(t, OrderServiceDeps{Orders: store})

	orders, err := svc.ListStoreOrders(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("ListStoreOrders returned error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	if _, err := svc.ListStoreOrders(context.Background(), "  "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput for blank store id, got %v", err)
	}
}
