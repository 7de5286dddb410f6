package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/services"
)

type fakeCustomerInsightsService struct {
	summaries []domain.CustomerSummary
	detail    domain.CustomerDetail
	lastStore string
	err       error
}

func (f *fakeCustomerInsightsService) ListCustomers(_ context.Context, storeID string) ([]domain.CustomerSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastStore = storeID
	return f.summaries, nil
}

func (f *fakeCustomerInsightsService) GetCustomerDetail(_ context.Context, storeID, customerID string) (domain.CustomerDetail, error) {
	if f.err != nil {
		return domain.CustomerDetail{}, f.err
	}
	f.lastStore = storeID
	if f.detail.ID != customerID {
		return domain.CustomerDetail{}, services.ErrCustomerNotFound
	}
	return f.detail, nil
}

func customerTestRouter(svc services.CustomerInsightsService) *chi.Mux {
	r := chi.NewRouter()
	NewCustomerHandlers(svc).StoreRoutes(r)
	return r
}

func TestCustomerHandlersListCustomers(t *testing.T) {
	firstOrder := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	svc := &fakeCustomerInsightsService{summaries: []domain.CustomerSummary{
		{
			Identity:       domain.CustomerIdentity{Kind: domain.IdentityRegistered, Key: "user-7"},
			Name:           "Asha",
			TotalOrders:    3,
			TotalSpent:     149700,
			FirstOrderDate: firstOrder,
			LastOrderDate:  firstOrder.AddDate(0, 1, 0),
		},
		{
			Identity: domain.CustomerIdentity{Kind: domain.IdentityGuest, Key: "asha@example.com"},
			IsGuest:  true,
		},
	}}
	r := customerTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req = req.WithContext(sellerContext(req.Context(), "store-1"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if svc.lastStore != "store-1" {
		t.Fatalf("expected store scoped to seller, got %q", svc.lastStore)
	}

	var payload struct {
		Items []struct {
			ID          string `json:"id"`
			IsGuest     bool   `json:"is_guest"`
			TotalOrders int    `json:"total_orders"`
			TotalSpent  int64  `json:"total_spent"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("expected two customers, got %d", len(payload.Items))
	}
	if payload.Items[0].ID != "user-7" || payload.Items[0].TotalSpent != 149700 {
		t.Fatalf("unexpected registered summary %+v", payload.Items[0])
	}
	if payload.Items[1].ID != "guest-asha@example.com" || !payload.Items[1].IsGuest {
		t.Fatalf("unexpected guest summary %+v", payload.Items[1])
	}
}

func TestCustomerHandlersGetCustomerDetail(t *testing.T) {
	lastOrder := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	svc := &fakeCustomerInsightsService{detail: domain.CustomerDetail{
		ID:                "user-7",
		Name:              "Asha",
		TotalOrders:       2,
		TotalSpent:        99800,
		AverageOrderValue: 49900,
		LastOrderDate:     &lastOrder,
		AbandonedCart: &domain.AbandonedCart{
			ID:       "ac-1",
			StoreID:  "store-1",
			Subtotal: 49900,
		},
	}}
	r := customerTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/customers/user-7", nil)
	req = req.WithContext(sellerContext(req.Context(), "store-1"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var payload struct {
		ID                string `json:"id"`
		AverageOrderValue int64  `json:"average_order_value"`
		LastOrderDate     string `json:"last_order_date"`
		AbandonedCart     *struct {
			ID       string `json:"id"`
			Subtotal int64  `json:"subtotal"`
		} `json:"abandoned_cart"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.AverageOrderValue != 49900 {
		t.Fatalf("unexpected average order value %d", payload.AverageOrderValue)
	}
	if payload.LastOrderDate != "2026-02-14T09:30:00Z" {
		t.Fatalf("unexpected last order date %q", payload.LastOrderDate)
	}
	if payload.AbandonedCart == nil || payload.AbandonedCart.Subtotal != 49900 {
		t.Fatalf("expected abandoned cart in detail, got %+v", payload.AbandonedCart)
	}
}

func TestCustomerHandlersGetCustomerDetailNotFound(t *testing.T) {
	r := customerTestRouter(&fakeCustomerInsightsService{})

	req := httptest.NewRequest(http.MethodGet, "/customers/ghost", nil)
	req = req.WithContext(sellerContext(req.Context(), "store-1"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCustomerHandlersRequireIdentity(t *testing.T) {
	r := customerTestRouter(&fakeCustomerInsightsService{})

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
