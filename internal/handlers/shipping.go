package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const (
	maxShippingBodySize  = 16 * 1024
	quoteRateLimit       = 60
	quoteRateLimitWindow = time.Minute
)

// ShippingHandlers exposes the store shipping policy and cart fee quotes.
type ShippingHandlers struct {
	svc     services.ShippingService
	limiter rateLimiter
}

// NewShippingHandlers constructs shipping handlers backed by the provided service.
func NewShippingHandlers(svc services.ShippingService) *ShippingHandlers {
	return &ShippingHandlers{
		svc:     svc,
		limiter: newSimpleRateLimiter(quoteRateLimit, quoteRateLimitWindow, time.Now),
	}
}

// PublicRoutes registers the anonymous quote endpoint.
func (h *ShippingHandlers) PublicRoutes(r chi.Router) {
	r.Post("/shipping/quote", h.quoteCart)
}

// StoreRoutes registers the seller policy endpoints.
func (h *ShippingHandlers) StoreRoutes(r chi.Router) {
	r.Get("/shipping-policy", h.getPolicy)
	r.Put("/shipping-policy", h.putPolicy)
}

type shippingQuoteRequest struct {
	StoreID string            `json:"store_id"`
	Items   []cartItemPayload `json:"items"`
}

func (h *ShippingHandlers) quoteCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many quote requests", http.StatusTooManyRequests))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "shipping service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxShippingBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req shippingQuoteRequest
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

	fee, err := h.svc.QuoteCart(ctx, req.StoreID, items)
	if err != nil {
		writeShippingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"shipping_fee": fee})
}

func (h *ShippingHandlers) getPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "shipping service unavailable", http.StatusServiceUnavailable))
		return
	}

	policy, err := h.svc.GetPolicy(ctx, identity.UID)
	if err != nil {
		writeShippingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildShippingPolicyPayload(policy))
}

type shippingPolicyRequest struct {
	Enabled         bool   `json:"enabled"`
	Strategy        string `json:"strategy"`
	FlatRate        int64  `json:"flat_rate"`
	FreeShippingMin *int64 `json:"free_shipping_min"`
	PerItemFee      int64  `json:"per_item_fee"`
	MaxItemFee      *int64 `json:"max_item_fee"`
}

func (h *ShippingHandlers) putPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "shipping service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxShippingBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req shippingPolicyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	policy, err := h.svc.SavePolicy(ctx, domain.ShippingPolicy{
		StoreID:         identity.UID,
		Enabled:         req.Enabled,
		Strategy:        domain.ShippingStrategy(strings.ToUpper(strings.TrimSpace(req.Strategy))),
		FlatRate:        req.FlatRate,
		FreeShippingMin: req.FreeShippingMin,
		PerItemFee:      req.PerItemFee,
		MaxItemFee:      req.MaxItemFee,
	})
	if err != nil {
		writeShippingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildShippingPolicyPayload(policy))
}

func writeShippingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrShippingStoreRequired):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrShippingInvalidPolicy):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve shipping request", http.StatusInternalServerError))
	}
}
