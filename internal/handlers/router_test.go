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
)

type routerStubSystemService struct {
	report domain.SystemHealthReport
	err    error
}

func (s *routerStubSystemService) HealthReport(_ context.Context) (domain.SystemHealthReport, error) {
	if s.err != nil {
		return domain.SystemHealthReport{}, s.err
	}
	return s.report, nil
}

func TestNewRouterHealthEndpoints(t *testing.T) {
	r := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse health body: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", payload["status"])
	}

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /readyz, got %d", rr.Code)
	}
}

func TestNewRouterReadyzUsesSystemService(t *testing.T) {
	system := &routerStubSystemService{report: domain.SystemHealthReport{
		Status:      domain.HealthStatusError,
		GeneratedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Checks: map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusError, Error: "deadline exceeded"},
		},
	}}
	r := NewRouter(WithHealthHandlers(NewHealthHandlers(WithHealthSystemService(system))))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from failing readiness, got %d", rr.Code)
	}
}

func TestNewRouterUnregisteredGroupsReturnNotImplemented(t *testing.T) {
	r := NewRouter()

	for _, path := range []string{
		"/api/v1/public/products",
		"/api/v1/me/cart",
		"/api/v1/checkout/",
		"/api/v1/store/orders",
		"/api/v1/admin/sections",
		"/api/v1/webhooks/courier/tracking",
		"/api/v1/internal/notifications/order-status",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("expected 501 for %s, got %d", path, rr.Code)
		}
	}
}

func TestNewRouterMountsRegistrars(t *testing.T) {
	r := NewRouter(
		WithPublicRoutes(func(r chi.Router) {
			r.Get("/products", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		WithStoreRoutes(func(r chi.Router) {
			r.Get("/orders", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/products", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from mounted public route, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/store/orders", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from mounted store route, got %d", rr.Code)
	}
}

func TestNewRouterGroupMiddlewares(t *testing.T) {
	var sawStore bool
	r := NewRouter(
		WithStoreRoutes(func(r chi.Router) {
			r.Get("/orders", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		WithStoreMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				sawStore = true
				next.ServeHTTP(w, req)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store/orders", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !sawStore {
		t.Fatalf("store middleware did not run")
	}

	// Middleware must not leak onto sibling groups.
	sawStore = false
	req = httptest.NewRequest(http.MethodGet, "/api/v1/public/anything", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if sawStore {
		t.Fatalf("store middleware ran on public group")
	}
}

func TestNewRouterUnknownRoute(t *testing.T) {
	r := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var payload struct {
		Code string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if payload.Code != errorNotFoundCode {
		t.Fatalf("expected %q code, got %q", errorNotFoundCode, payload.Code)
	}
}
