package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/repositories"
)

type fakeProductRepo struct {
	byID    map[string]domain.Product
	bySlug  map[string]domain.Product
	updated []domain.Product
	listReq *repositories.ProductListFilter
	page    domain.CursorPage[domain.Product]
	err     error
}

func (r *fakeProductRepo) Insert(context.Context, domain.Product) error { return nil }

func (r *fakeProductRepo) Update(_ context.Context, product domain.Product) error {
	if r.err != nil {
		return r.err
	}
	r.updated = append(r.updated, product)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	product, ok := r.byID[productID]
	if !ok {
		return domain.Product{}, fakeRepoError{notFound: true}
	}
	return product, nil
}

func (r *fakeProductRepo) FindBySlug(_ context.Context, slug string) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	product, ok := r.bySlug[slug]
	if !ok {
		return domain.Product{}, fakeRepoError{notFound: true}
	}
	return product, nil
}

func (r *fakeProductRepo) List(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	r.listReq = &filter
	if r.err != nil {
		return domain.CursorPage[domain.Product]{}, r.err
	}
	return r.page, nil
}

func newCatalogServiceForTest(t *testing.T, repo repositories.ProductRepository) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products: repo,
		Clock: func() time.Time {
			return time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("NewCatalogService returned error: %v", err)
	}
	return svc
}

func TestNormalizeSlug(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Ceramic Mug", "ceramic-mug"},
		{"  Café Olé!  ", "cafe-ole"},
		{"wireless--headphones", "wireless-headphones"},
		{"100% Cotton T-Shirt", "100-cotton-t-shirt"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSlug(tc.raw); got != tc.want {
			t.Fatalf("NormalizeSlug(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestGetProductBySlugNormalizesBeforeLookup(t *testing.T) {
	repo := &fakeProductRepo{bySlug: map[string]domain.Product{
		"ceramic-mug": {ID: "p1", Slug: "ceramic-mug", Name: "Ceramic Mug"},
	}}
	svc := newCatalogServiceForTest(t, repo)

	product, err := svc.GetProductBySlug(context.Background(), "  Ceramic Mug ")
	if err != nil {
		t.Fatalf("GetProductBySlug returned error: %v", err)
	}
	if product.ID != "p1" {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestGetProductBySlugNotFound(t *testing.T) {
	svc := newCatalogServiceForTest(t, &fakeProductRepo{})
	if _, err := svc.GetProductBySlug(context.Background(), "missing"); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected ErrCatalogProductNotFound, got %v", err)
	}
}

func TestGetProductBySlugRequiresSlug(t *testing.T) {
	svc := newCatalogServiceForTest(t, &fakeProductRepo{})
	if _, err := svc.GetProductBySlug(context.Background(), "  !! "); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}

func TestToggleStockFlipsFlag(t *testing.T) {
	repo := &fakeProductRepo{byID: map[string]domain.Product{
		"p1": {ID: "p1", StoreID: "store-1", InStock: true},
	}}
	svc := newCatalogServiceForTest(t, repo)

	product, err := svc.ToggleStock(context.Background(), "store-1", "p1")
	if err != nil {
		t.Fatalf("ToggleStock returned error: %v", err)
	}
	if product.InStock {
		t.Fatalf("expected in-stock flag to flip off")
	}
	if len(repo.updated) != 1 || repo.updated[0].InStock {
		t.Fatalf("expected persisted update with flipped flag, got %+v", repo.updated)
	}
	if product.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be stamped")
	}
}

func TestToggleStockRejectsForeignStore(t *testing.T) {
	repo := &fakeProductRepo{byID: map[string]domain.Product{
		"p1": {ID: "p1", StoreID: "store-2"},
	}}
	svc := newCatalogServiceForTest(t, repo)

	if _, err := svc.ToggleStock(context.Background(), "store-1", "p1"); !errors.Is(err, ErrCatalogForbidden) {
		t.Fatalf("expected ErrCatalogForbidden, got %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatalf("foreign-store toggle must not persist")
	}
}

func TestToggleStockNotFound(t *testing.T) {
	svc := newCatalogServiceForTest(t, &fakeProductRepo{})
	if _, err := svc.ToggleStock(context.Background(), "store-1", "missing"); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected ErrCatalogProductNotFound, got %v", err)
	}
}

func TestListProductsTrimsFilter(t *testing.T) {
	repo := &fakeProductRepo{page: domain.CursorPage[domain.Product]{
		Items: []domain.Product{{ID: "p1"}},
	}}
	svc := newCatalogServiceForTest(t, repo)

	page, err := svc.ListProducts(context.Background(), ProductListFilter{
		StoreID:  " store-1 ",
		Category: " mugs ",
	})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one product, got %d", len(page.Items))
	}
	if repo.listReq.StoreID != "store-1" || repo.listReq.Category != "mugs" {
		t.Fatalf("expected trimmed filter, got %+v", repo.listReq)
	}
}
