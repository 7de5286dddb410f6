package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers serves the authenticated customer's shopping cart.
type CartHandlers struct {
	svc services.CartService
}

// NewCartHandlers constructs cart handlers backed by the provided service.
func NewCartHandlers(svc services.CartService) *CartHandlers {
	return &CartHandlers{svc: svc}
}

// Routes registers cart endpoints on the /me group.
func (h *CartHandlers) Routes(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Put("/cart", h.putCart)
	r.Delete("/cart", h.clearCart)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	storeID := strings.TrimSpace(r.URL.Query().Get("store"))
	cart, err := h.svc.GetOrCreateCart(ctx, storeID, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartPayload(cart))
}

type putCartRequest struct {
	StoreID string            `json:"store_id"`
	Items   []cartItemPayload `json:"items"`
}

func (h *CartHandlers) putCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req putCartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	items := make([]services.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	cart, err := h.svc.SetItems(ctx, req.StoreID, identity.UID, items)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartPayload(cart))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	storeID := strings.TrimSpace(r.URL.Query().Get("store"))
	if err := h.svc.ClearCart(ctx, storeID, identity.UID); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve cart request", http.StatusInternalServerError))
	}
}
