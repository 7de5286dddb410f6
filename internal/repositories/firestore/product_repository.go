package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/quickfynd/api/internal/domain"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
	ppagination "github.com/quickfynd/api/internal/platform/pagination"
	"github.com/quickfynd/api/internal/repositories"
)

const (
	productCollection      = "products"
	defaultProductPageSize = 50
	maxProductPageSize     = 200
)

type productDocument struct {
	StoreID       string    `firestore:"storeId"`
	Name          string    `firestore:"name"`
	Slug          string    `firestore:"slug"`
	Description   string    `firestore:"description,omitempty"`
	MRP           int64     `firestore:"mrp"`
	Price         int64     `firestore:"price"`
	Currency      string    `firestore:"currency"`
	Images        []string  `firestore:"images,omitempty"`
	Category      string    `firestore:"category,omitempty"`
	SKU           string    `firestore:"sku,omitempty"`
	InStock       bool      `firestore:"inStock"`
	StockQuantity int       `firestore:"stockQuantity"`
	FastDelivery  bool      `firestore:"fastDelivery"`
	AllowReturn   bool      `firestore:"allowReturn"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

// ProductRepository persists catalog entries in Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Insert creates the product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, product.ID, fromDomainProduct(product))
	return err
}

// Update overwrites the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	return r.Insert(ctx, product)
}

// FindByID loads a product by its document ID.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(doc.ID, doc.Data), nil
}

// FindBySlug loads a product by its URL slug.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, errors.New("product repository: slug is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.WrapError("products.findbyslug", status.Errorf(codes.NotFound, "product slug %q not found", slug))
	}
	return toDomainProduct(docs[0].ID, docs[0].Data), nil
}

// List returns a page of products matching the filter, ordered by creation
// time descending.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = defaultProductPageSize
	}
	if pageSize > maxProductPageSize {
		pageSize = maxProductPageSize
	}

	cursor, err := ppagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			q = q.Where("storeId", "==", storeID)
		}
		if category := strings.TrimSpace(filter.Category); category != "" {
			q = q.Where("category", "==", category)
		}
		if filter.InStock != nil {
			q = q.Where("inStock", "==", *filter.InStock)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	wanted := make(map[string]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			wanted[trimmed] = true
		}
	}

	page := domain.CursorPage[domain.Product]{}
	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}
	for _, doc := range docs {
		if len(wanted) > 0 && !wanted[doc.ID] {
			continue
		}
		page.Items = append(page.Items, toDomainProduct(doc.ID, doc.Data))
	}

	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		token, err := ppagination.EncodeToken(ppagination.Cursor{
			StartAfter: []any{last.Data.CreatedAt, last.ID},
		})
		if err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("products.list: %w", err)
		}
		page.NextPageToken = token
	}
	return page, nil
}

func fromDomainProduct(product domain.Product) productDocument {
	now := time.Now().UTC()
	doc := productDocument{
		StoreID:       strings.TrimSpace(product.StoreID),
		Name:          strings.TrimSpace(product.Name),
		Slug:          strings.TrimSpace(product.Slug),
		Description:   product.Description,
		MRP:           product.MRP,
		Price:         product.Price,
		Currency:      strings.ToUpper(strings.TrimSpace(product.Currency)),
		Images:        product.Images,
		Category:      strings.TrimSpace(product.Category),
		SKU:           strings.TrimSpace(product.SKU),
		InStock:       product.InStock,
		StockQuantity: product.StockQuantity,
		FastDelivery:  product.FastDelivery,
		AllowReturn:   product.AllowReturn,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	return doc
}

func toDomainProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:            id,
		StoreID:       doc.StoreID,
		Name:          doc.Name,
		Slug:          doc.Slug,
		Description:   doc.Description,
		MRP:           doc.MRP,
		Price:         doc.Price,
		Currency:      doc.Currency,
		Images:        doc.Images,
		Category:      doc.Category,
		SKU:           doc.SKU,
		InStock:       doc.InStock,
		StockQuantity: doc.StockQuantity,
		FastDelivery:  doc.FastDelivery,
		AllowReturn:   doc.AllowReturn,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
