package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quickfynd/api/internal/domain"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
	ppagination "github.com/quickfynd/api/internal/platform/pagination"
	"github.com/quickfynd/api/internal/repositories"
)

const (
	orderCollection      = "orders"
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

type orderItemDocument struct {
	ProductID string `firestore:"productId"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
}

type orderAddressDocument struct {
	Name       string `firestore:"name,omitempty"`
	Street     string `firestore:"street,omitempty"`
	City       string `firestore:"city,omitempty"`
	State      string `firestore:"state,omitempty"`
	PostalCode string `firestore:"postalCode,omitempty"`
	Country    string `firestore:"country,omitempty"`
	Phone      string `firestore:"phone,omitempty"`
}

type orderDocument struct {
	OrderNumber     string                `firestore:"orderNumber"`
	StoreID         string                `firestore:"storeId"`
	UserID          string                `firestore:"userId,omitempty"`
	IsGuest         bool                  `firestore:"isGuest"`
	GuestName       string                `firestore:"guestName,omitempty"`
	GuestEmail      string                `firestore:"guestEmail,omitempty"`
	GuestPhone      string                `firestore:"guestPhone,omitempty"`
	Status          string                `firestore:"status"`
	Currency        string                `firestore:"currency"`
	Total           int64                 `firestore:"total"`
	ShippingFee     int64                 `firestore:"shippingFee"`
	PaymentMethod   string                `firestore:"paymentMethod"`
	PaymentStatus   string                `firestore:"paymentStatus,omitempty"`
	IsPaid          bool                  `firestore:"isPaid"`
	Courier         string                `firestore:"courier,omitempty"`
	TrackingID      string                `firestore:"trackingId,omitempty"`
	TrackingURL     string                `firestore:"trackingUrl,omitempty"`
	Items           []orderItemDocument   `firestore:"items"`
	ShippingAddress *orderAddressDocument `firestore:"shippingAddress,omitempty"`
	CustomerName    string                `firestore:"customerName,omitempty"`
	CustomerEmail   string                `firestore:"customerEmail,omitempty"`
	CustomerImage   string                `firestore:"customerImage,omitempty"`
	CreatedAt       time.Time             `firestore:"createdAt"`
	UpdatedAt       time.Time             `firestore:"updatedAt"`
}

// OrderRepository persists orders in Firestore. Listings hydrate line items
// with their current product records; products deleted since the order was
// placed stay nil.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	products *ProductRepository
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider, products *ProductRepository) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	if products == nil {
		return nil, errors.New("order repository requires product repository")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, products: products, provider: provider}, nil
}

// Insert creates the order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, order.ID, fromDomainOrder(order))
	return err
}

// Update overwrites the order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.Insert(ctx, order)
}

// FindByID loads one order with hydrated product records.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order := toDomainOrder(doc.ID, doc.Data)
	if err := r.hydrateProducts(ctx, []domain.Order{order}); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListByStore returns every order of the store, most recent first.
func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, errors.New("order repository: store id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("storeId", "==", storeID).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	orders := toDomainOrders(docs)
	if err := r.hydrateProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByCustomer returns one customer's orders for the store, most recent first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, storeID string, userID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	userID = strings.TrimSpace(userID)
	if storeID == "" || userID == "" {
		return nil, errors.New("order repository: store id and user id are required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("storeId", "==", storeID).
			Where("userId", "==", userID).
			OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	orders := toDomainOrders(docs)
	if err := r.hydrateProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns a filtered page of orders.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}

	cursor, err := ppagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	direction := firestore.Desc
	if filter.Sort == domain.SortAsc {
		direction = firestore.Asc
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			q = q.Where("storeId", "==", storeID)
		}
		if userID := strings.TrimSpace(filter.UserID); userID != "" {
			q = q.Where("userId", "==", userID)
		}
		if email := strings.TrimSpace(filter.GuestEmail); email != "" {
			q = q.Where("guestEmail", "==", email)
		}
		if len(filter.Statuses) == 1 {
			q = q.Where("status", "==", string(filter.Statuses[0]))
		} else if len(filter.Statuses) > 1 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, s := range filter.Statuses {
				statuses = append(statuses, string(s))
			}
			q = q.Where("status", "in", statuses)
		}
		if filter.CreatedRange != nil {
			if filter.CreatedRange.From != nil {
				q = q.Where("createdAt", ">=", *filter.CreatedRange.From)
			}
			if filter.CreatedRange.To != nil {
				q = q.Where("createdAt", "<=", *filter.CreatedRange.To)
			}
		}
		q = q.OrderBy("createdAt", direction).OrderBy(firestore.DocumentID, direction)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}
	page.Items = toDomainOrders(docs)
	if err := r.hydrateProducts(ctx, page.Items); err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		token, err := ppagination.EncodeToken(ppagination.Cursor{
			StartAfter: []any{last.Data.CreatedAt, last.ID},
		})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: %w", err)
		}
		page.NextPageToken = token
	}
	return page, nil
}

// hydrateProducts attaches the current catalog record to every line item in
// one batched read. Dangling references stay nil.
func (r *OrderRepository) hydrateProducts(ctx context.Context, orders []domain.Order) error {
	ids := make(map[string]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			if id := strings.TrimSpace(item.ProductID); id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for id := range ids {
		refs = append(refs, client.Collection(productCollection).Doc(id))
	}

	snapshots, err := client.GetAll(ctx, refs)
	if err != nil {
		return pfirestore.WrapError("orders.hydrate", err)
	}

	found := make(map[string]*domain.Product, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || !snap.Exists() {
			continue
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("orders.hydrate: decode product %s: %w", snap.Ref.ID, err)
		}
		product := toDomainProduct(snap.Ref.ID, doc)
		found[snap.Ref.ID] = &product
	}

	for oi := range orders {
		for ii := range orders[oi].Items {
			if product, ok := found[orders[oi].Items[ii].ProductID]; ok {
				clone := *product
				orders[oi].Items[ii].Product = &clone
			}
		}
	}
	return nil
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:   strings.TrimSpace(order.OrderNumber),
		StoreID:       strings.TrimSpace(order.StoreID),
		UserID:        strings.TrimSpace(order.UserID),
		IsGuest:       order.IsGuest,
		GuestName:     strings.TrimSpace(order.GuestName),
		GuestEmail:    strings.TrimSpace(order.GuestEmail),
		GuestPhone:    strings.TrimSpace(order.GuestPhone),
		Status:        string(order.Status),
		Currency:      strings.ToUpper(strings.TrimSpace(order.Currency)),
		Total:         order.Total,
		ShippingFee:   order.ShippingFee,
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: order.PaymentStatus,
		IsPaid:        order.IsPaid,
		Courier:       strings.TrimSpace(order.Courier),
		TrackingID:    strings.TrimSpace(order.TrackingID),
		TrackingURL:   strings.TrimSpace(order.TrackingURL),
		CustomerName:  strings.TrimSpace(order.CustomerName),
		CustomerEmail: strings.TrimSpace(order.CustomerEmail),
		CustomerImage: strings.TrimSpace(order.CustomerImage),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID: strings.TrimSpace(item.ProductID),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	if addr := order.ShippingAddress; addr != nil {
		doc.ShippingAddress = &orderAddressDocument{
			Name:       addr.Name,
			Street:     addr.Street,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
			Phone:      addr.Phone,
		}
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:            id,
		OrderNumber:   doc.OrderNumber,
		StoreID:       doc.StoreID,
		UserID:        doc.UserID,
		IsGuest:       doc.IsGuest,
		GuestName:     doc.GuestName,
		GuestEmail:    doc.GuestEmail,
		GuestPhone:    doc.GuestPhone,
		Status:        domain.OrderStatus(doc.Status),
		Currency:      doc.Currency,
		Total:         doc.Total,
		ShippingFee:   doc.ShippingFee,
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus: doc.PaymentStatus,
		IsPaid:        doc.IsPaid,
		Courier:       doc.Courier,
		TrackingID:    doc.TrackingID,
		TrackingURL:   doc.TrackingURL,
		CustomerName:  doc.CustomerName,
		CustomerEmail: doc.CustomerEmail,
		CustomerImage: doc.CustomerImage,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	if addr := doc.ShippingAddress; addr != nil {
		order.ShippingAddress = &domain.Address{
			Name:       addr.Name,
			Street:     addr.Street,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
			Phone:      addr.Phone,
		}
	}
	return order
}

func toDomainOrders(docs []pfirestore.Document[orderDocument]) []domain.Order {
	if len(docs) == 0 {
		return nil
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders
}
