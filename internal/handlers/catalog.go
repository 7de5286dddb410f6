package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/platform/pagination"
	"github.com/quickfynd/api/internal/services"
)

const maxProductPageSize = 100

// CatalogHandlers exposes storefront product lookups and seller stock controls.
type CatalogHandlers struct {
	svc services.CatalogService
}

// NewCatalogHandlers constructs catalog handlers backed by the provided service.
func NewCatalogHandlers(svc services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{svc: svc}
}

// PublicRoutes registers the storefront product endpoints.
func (h *CatalogHandlers) PublicRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{slug}", h.getProductBySlug)
}

// StoreRoutes registers the seller-facing catalog endpoints.
func (h *CatalogHandlers) StoreRoutes(r chi.Router) {
	r.Patch("/products/{productID}/stock", h.toggleStock)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.ProductListFilter{
		StoreID:  strings.TrimSpace(query.Get("store")),
		Category: strings.TrimSpace(query.Get("category")),
	}
	if raw := strings.TrimSpace(query.Get("in_stock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "in_stock must be a boolean", http.StatusBadRequest))
			return
		}
		filter.InStock = &inStock
	}
	if raw := strings.TrimSpace(query.Get("ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.IDs = append(filter.IDs, id)
			}
		}
	}
	page, err := pagination.ParsePage(query, pagination.Limits{Max: maxProductPageSize})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
		return
	}
	filter.Pagination.PageSize = page.Size
	filter.Pagination.PageToken = page.Token

	page, err := h.svc.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"items":           items,
		"next_page_token": page.NextPageToken,
	})
}

func (h *CatalogHandlers) getProductBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	product, err := h.svc.GetProductBySlug(ctx, slug)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *CatalogHandlers) toggleStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.svc.ToggleStock(ctx, identity.UID, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("permission_denied", "product not owned by store", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve catalog request", http.StatusInternalServerError))
	}
}
