package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

// CustomerHandlers serves the seller dashboard customer rollups.
type CustomerHandlers struct {
	svc services.CustomerInsightsService
}

// NewCustomerHandlers constructs customer handlers backed by the provided service.
func NewCustomerHandlers(svc services.CustomerInsightsService) *CustomerHandlers {
	return &CustomerHandlers{svc: svc}
}

// StoreRoutes registers seller-facing customer endpoints.
func (h *CustomerHandlers) StoreRoutes(r chi.Router) {
	r.Get("/customers", h.listCustomers)
	r.Get("/customers/{customerID}", h.getCustomerDetail)
}

type customerSummaryPayload struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name,omitempty"`
	Email          string                 `json:"email,omitempty"`
	Image          string                 `json:"image,omitempty"`
	IsGuest        bool                   `json:"is_guest"`
	TotalOrders    int                    `json:"total_orders"`
	TotalSpent     int64                  `json:"total_spent"`
	FirstOrderDate string                 `json:"first_order_date,omitempty"`
	LastOrderDate  string                 `json:"last_order_date,omitempty"`
	Orders         []customerOrderPayload `json:"orders"`
}

func buildCustomerSummaryPayload(summary domain.CustomerSummary) customerSummaryPayload {
	return customerSummaryPayload{
		ID:             summary.Identity.String(),
		Name:           summary.Name,
		Email:          summary.Email,
		Image:          summary.Image,
		IsGuest:        summary.IsGuest,
		TotalOrders:    summary.TotalOrders,
		TotalSpent:     summary.TotalSpent,
		FirstOrderDate: formatTime(summary.FirstOrderDate),
		LastOrderDate:  formatTime(summary.LastOrderDate),
		Orders:         buildCustomerOrderPayloads(summary.Orders),
	}
}

func (h *CustomerHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "customer insights unavailable", http.StatusServiceUnavailable))
		return
	}

	summaries, err := h.svc.ListCustomers(ctx, identity.UID)
	if err != nil {
		writeCustomerError(ctx, w, err)
		return
	}

	items := make([]customerSummaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, buildCustomerSummaryPayload(summary))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

type customerDetailPayload struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name,omitempty"`
	Email             string                 `json:"email,omitempty"`
	Image             string                 `json:"image,omitempty"`
	TotalOrders       int                    `json:"total_orders"`
	TotalSpent        int64                  `json:"total_spent"`
	AverageOrderValue int64                  `json:"average_order_value"`
	FirstOrderDate    string                 `json:"first_order_date,omitempty"`
	LastOrderDate     string                 `json:"last_order_date,omitempty"`
	Orders            []customerOrderPayload `json:"orders"`
	AbandonedCart     *abandonedCartPayload  `json:"abandoned_cart,omitempty"`
}

func (h *CustomerHandlers) getCustomerDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "customer insights unavailable", http.StatusServiceUnavailable))
		return
	}

	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))
	detail, err := h.svc.GetCustomerDetail(ctx, identity.UID, customerID)
	if err != nil {
		writeCustomerError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, customerDetailPayload{
		ID:                detail.ID,
		Name:              detail.Name,
		Email:             detail.Email,
		Image:             detail.Image,
		TotalOrders:       detail.TotalOrders,
		TotalSpent:        detail.TotalSpent,
		AverageOrderValue: detail.AverageOrderValue,
		FirstOrderDate:    formatTimePtr(detail.FirstOrderDate),
		LastOrderDate:     formatTimePtr(detail.LastOrderDate),
		Orders:            buildCustomerOrderPayloads(detail.Orders),
		AbandonedCart:     buildAbandonedCartPayload(detail.AbandonedCart),
	})
}

func writeCustomerError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerStoreRequired):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "customer not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve customer request", http.StatusInternalServerError))
	}
}
