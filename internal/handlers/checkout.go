package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxCheckoutBodySize = 64 * 1024

// CheckoutHandlers turns storefront carts into orders. Requests may carry a
// verified Firebase identity or guest contact details.
type CheckoutHandlers struct {
	svc services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers backed by the provided service.
func NewCheckoutHandlers(svc services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{svc: svc}
}

// Routes registers checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	r.Post("/", h.placeOrder)
}

type checkoutGuestPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type checkoutRequest struct {
	StoreID         string                `json:"store_id"`
	Guest           *checkoutGuestPayload `json:"guest"`
	Items           []cartItemPayload     `json:"items"`
	Currency        string                `json:"currency"`
	PaymentMethod   string                `json:"payment_method"`
	ShippingAddress *addressPayload       `json:"shipping_address"`
}

type checkoutResponse struct {
	Order        orderPayload `json:"order"`
	ShippingFee  int64        `json:"shipping_fee"`
	ClientSecret string       `json:"client_secret,omitempty"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.PlaceOrderCommand{
		StoreID:       req.StoreID,
		Currency:      req.Currency,
		PaymentMethod: services.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
	}

	if identity, ok := auth.IdentityFromContext(ctx); ok {
		cmd.UserID = identity.UID
	} else if req.Guest != nil {
		cmd.Guest = &services.GuestContact{
			Name:  req.Guest.Name,
			Email: req.Guest.Email,
			Phone: req.Guest.Phone,
		}
	}

	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	if req.ShippingAddress != nil {
		cmd.ShippingAddress = &domain.Address{
			Name:       req.ShippingAddress.Name,
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		}
	}

	result, err := h.svc.PlaceOrder(ctx, cmd)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, checkoutResponse{
		Order:        buildOrderPayload(result.Order),
		ShippingFee:  result.ShippingFee,
		ClientSecret: result.ClientSecret,
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_failed", "payment could not be initiated", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to place order", http.StatusInternalServerError))
	}
}
