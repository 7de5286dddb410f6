package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog operation.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogForbidden indicates the product belongs to a different store.
	ErrCatalogForbidden = errors.New("catalog service: product not owned by store")
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// slugStripper removes diacritics so accented product names resolve to the
// same slug as their plain-ASCII spelling.
var slugStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Clock    func() time.Time
}

type catalogService struct {
	products repositories.ProductRepository
	clock    func() time.Time
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{
		products: deps.Products,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	normalized := NormalizeSlug(slug)
	if normalized == "" {
		return Product{}, fmt.Errorf("%w: slug is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindBySlug(ctx, normalized)
	if err != nil {
		if isRepoNotFound(err) {
			return Product{}, fmt.Errorf("%w: %q", ErrCatalogProductNotFound, normalized)
		}
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	repoFilter := repositories.ProductListFilter{
		StoreID:  strings.TrimSpace(filter.StoreID),
		Category: strings.TrimSpace(filter.Category),
		InStock:  filter.InStock,
		IDs:      filter.IDs,
		Pagination: domain.Pagination{
			PageSize:  filter.Pagination.PageSize,
			PageToken: strings.TrimSpace(filter.Pagination.PageToken),
		},
	}
	return s.products.List(ctx, repoFilter)
}

func (s *catalogService) ToggleStock(ctx context.Context, storeID string, productID string) (Product, error) {
	storeID = strings.TrimSpace(storeID)
	productID = strings.TrimSpace(productID)
	if storeID == "" {
		return Product{}, fmt.Errorf("%w: store id is required", ErrCatalogInvalidInput)
	}
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return Product{}, fmt.Errorf("%w: %q", ErrCatalogProductNotFound, productID)
		}
		return Product{}, err
	}
	if product.StoreID != storeID {
		return Product{}, ErrCatalogForbidden
	}

	product.InStock = !product.InStock
	product.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// NormalizeSlug lowercases, strips diacritics, and collapses every
// non-alphanumeric run into a single hyphen.
func NormalizeSlug(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	stripped, _, err := transform.String(slugStripper, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.Trim(slugSanitizer.ReplaceAllString(stripped, "-"), "-")
}
