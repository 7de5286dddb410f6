package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// CursorPage wraps a page of results together with the token for the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPlaced indicates the order has been placed and awaits confirmation.
	OrderStatusPlaced OrderStatus = "ORDER_PLACED"
	// OrderStatusConfirmed indicates the order has been confirmed by the seller.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusShipped indicates the order has been handed to a courier.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered indicates the order has reached the customer.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled indicates the order was cancelled before delivery.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRefunded indicates the order was refunded after cancellation or return.
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// PaymentMethod enumerates supported checkout payment methods.
type PaymentMethod string

const (
	// PaymentMethodCOD indicates cash on delivery; no PSP involvement.
	PaymentMethodCOD PaymentMethod = "COD"
	// PaymentMethodCard indicates prepaid card payment through the PSP.
	PaymentMethodCard PaymentMethod = "CARD"
)

// Order captures an order document scoped to a store. Orders placed through
// guest checkout carry the Guest* fields instead of a user reference.
type Order struct {
	ID              string
	OrderNumber     string
	StoreID         string
	UserID          string
	IsGuest         bool
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	Status          OrderStatus
	Currency        string
	Total           int64
	ShippingFee     int64
	PaymentMethod   PaymentMethod
	PaymentStatus   string
	IsPaid          bool
	Courier         string
	TrackingID      string
	TrackingURL     string
	Items           []OrderItem
	ShippingAddress *Address
	CustomerName    string
	CustomerEmail   string
	CustomerImage   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem mirrors a cart line at the time an order was placed. Product holds
// the current catalog record when it still exists and is nil for dangling
// references.
type OrderItem struct {
	ProductID string
	Product   *Product
	UnitPrice int64
	Quantity  int
}

// Address stores a shipping destination snapshot on orders.
type Address struct {
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Product describes a catalog entry owned by a store.
type Product struct {
	ID            string
	StoreID       string
	Name          string
	Slug          string
	Description   string
	MRP           int64
	Price         int64
	Currency      string
	Images        []string
	Category      string
	SKU           string
	InStock       bool
	StockQuantity int
	FastDelivery  bool
	AllowReturn   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cart aggregates the mutable shopping cart state for a customer session.
type Cart struct {
	ID        string
	StoreID   string
	UserID    string
	Currency  string
	Items     []CartItem
	UpdatedAt time.Time
}

// CartItem stores a single product entry within a cart.
type CartItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

// AbandonedCart records a cart a customer walked away from, kept for
// follow-up on the seller dashboard.
type AbandonedCart struct {
	ID         string
	StoreID    string
	UserID     string
	Items      []CartItem
	Subtotal   int64
	LastSeenAt time.Time
	CreatedAt  time.Time
}

// ShippingStrategy selects the fee computation rule for a store policy.
type ShippingStrategy string

const (
	// ShippingFlatRate charges a fixed fee with an optional free-shipping threshold.
	ShippingFlatRate ShippingStrategy = "FLAT_RATE"
	// ShippingPerItem charges per unit with an optional cap.
	ShippingPerItem ShippingStrategy = "PER_ITEM"
)

// ShippingPolicy holds the merchant-configured shipping fee rules for a store.
// Optional thresholds are pointers; nil means the rule is not configured.
type ShippingPolicy struct {
	StoreID         string
	Enabled         bool
	Strategy        ShippingStrategy
	FlatRate        int64
	FreeShippingMin *int64
	PerItemFee      int64
	MaxItemFee      *int64
	UpdatedAt       time.Time
}

// CustomerSummary is the per-identity rollup shown on the seller dashboard.
type CustomerSummary struct {
	Identity       CustomerIdentity
	Name           string
	Email          string
	Image          string
	IsGuest        bool
	TotalOrders    int
	TotalSpent     int64
	FirstOrderDate time.Time
	LastOrderDate  time.Time
	Orders         []CustomerOrder
}

// CustomerOrder is the lightweight order record embedded in summaries and
// details. Items carries the JSON-serialized line item snapshots.
type CustomerOrder struct {
	ID        string
	Total     int64
	Status    OrderStatus
	CreatedAt time.Time
	Items     string
}

// CustomerDetail is the full single-customer view for the seller dashboard.
type CustomerDetail struct {
	ID                string
	Name              string
	Email             string
	Image             string
	TotalOrders       int
	TotalSpent        int64
	AverageOrderValue int64
	FirstOrderDate    *time.Time
	LastOrderDate     *time.Time
	Orders            []CustomerOrder
	AbandonedCart     *AbandonedCart
}

// UserProfile stores the registered customer identity record.
type UserProfile struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HomeSection is a merchant-curated storefront section (banner, product grid).
type HomeSection struct {
	ID         string
	Section    string
	Title      string
	Subtitle   string
	Category   string
	Tag        string
	ProductIDs []string
	GridSize   int
	Layout     string
	CTAText    string
	CTALink    string
	Visible    bool
	SortOrder  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
