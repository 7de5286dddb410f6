package services

import (
	"context"

	domain "github.com/quickfynd/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination       = domain.Pagination
	SortOrder        = domain.SortOrder
	Order            = domain.Order
	OrderItem        = domain.OrderItem
	OrderStatus      = domain.OrderStatus
	Address          = domain.Address
	Product          = domain.Product
	Cart             = domain.Cart
	CartItem         = domain.CartItem
	AbandonedCart    = domain.AbandonedCart
	ShippingPolicy   = domain.ShippingPolicy
	ShippingStrategy = domain.ShippingStrategy
	CustomerIdentity = domain.CustomerIdentity
	CustomerSummary  = domain.CustomerSummary
	CustomerOrder    = domain.CustomerOrder
	CustomerDetail   = domain.CustomerDetail
	UserProfile      = domain.UserProfile
	HomeSection      = domain.HomeSection
	PaymentMethod    = domain.PaymentMethod

	SystemHealthReport = domain.SystemHealthReport
)

// Re-exported lifecycle and payment constants.
const (
	OrderStatusPlaced    = domain.OrderStatusPlaced
	OrderStatusConfirmed = domain.OrderStatusConfirmed
	OrderStatusShipped   = domain.OrderStatusShipped
	OrderStatusDelivered = domain.OrderStatusDelivered
	OrderStatusCancelled = domain.OrderStatusCancelled
	OrderStatusRefunded  = domain.OrderStatusRefunded

	PaymentMethodCOD  = domain.PaymentMethodCOD
	PaymentMethodCard = domain.PaymentMethodCard
)

// CustomerInsightsService aggregates store orders into per-customer rollups
// for the seller dashboard.
type CustomerInsightsService interface {
	// ListCustomers folds every order of the store into customer summaries
	// sorted by total spend descending.
	ListCustomers(ctx context.Context, storeID string) ([]CustomerSummary, error)
	// GetCustomerDetail produces the full view for one registered customer,
	// including order history and any in-flight abandoned cart.
	GetCustomerDetail(ctx context.Context, storeID string, customerID string) (CustomerDetail, error)
}

// ShippingService exposes the store shipping policy and cart fee quotes.
type ShippingService interface {
	GetPolicy(ctx context.Context, storeID string) (ShippingPolicy, error)
	SavePolicy(ctx context.Context, policy ShippingPolicy) (ShippingPolicy, error)
	// QuoteCart evaluates the store policy against the given cart items.
	QuoteCart(ctx context.Context, storeID string, items []CartItem) (int64, error)
}

// GuestContact carries the contact fields captured during guest checkout.
type GuestContact struct {
	Name  string
	Email string
	Phone string
}

// PlaceOrderCommand captures the inputs for checkout.
type PlaceOrderCommand struct {
	StoreID         string
	UserID          string
	Guest           *GuestContact
	Items           []CartItem
	Currency        string
	PaymentMethod   PaymentMethod
	ShippingAddress *Address
}

// PlaceOrderResult returns the persisted order and, for prepaid methods, the
// PSP client secret needed to confirm payment.
type PlaceOrderResult struct {
	Order        Order
	ShippingFee  int64
	ClientSecret string
}

// CheckoutService turns carts into orders.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error)
}

// CartService owns the mutable shopping cart and the abandoned-cart trail
// the seller dashboard surfaces.
type CartService interface {
	GetOrCreateCart(ctx context.Context, storeID string, userID string) (Cart, error)
	// SetItems replaces the cart contents and refreshes the abandoned-cart
	// record; an emptied cart clears it.
	SetItems(ctx context.Context, storeID string, userID string, items []CartItem) (Cart, error)
	ClearCart(ctx context.Context, storeID string, userID string) error
}

// OrderStatusCommand moves an order to a new lifecycle state. Courier and
// tracking fields are recorded when present, typically on SHIPPED.
type OrderStatusCommand struct {
	StoreID     string
	OrderID     string
	Status      OrderStatus
	Courier     string
	TrackingID  string
	TrackingURL string
}

// OrderService serves the seller order dashboard.
type OrderService interface {
	ListStoreOrders(ctx context.Context, storeID string) ([]Order, error)
	GetOrder(ctx context.Context, storeID string, orderID string) (Order, error)
	// UpdateStatus transitions the order and emits a status event for
	// notification fan-out.
	UpdateStatus(ctx context.Context, cmd OrderStatusCommand) (Order, error)
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	StoreID    string
	Category   string
	InStock    *bool
	IDs        []string
	Pagination Pagination
}

// CatalogService serves storefront product lookups and seller stock controls.
type CatalogService interface {
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
	// ToggleStock flips the in-stock flag of a product owned by the store.
	ToggleStock(ctx context.Context, storeID string, productID string) (Product, error)
}

// SectionCommand carries create/update fields for storefront sections.
type SectionCommand struct {
	SectionID  string
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
	Visible    *bool
	SortOrder  int
}

// ContentService manages merchant-curated storefront sections.
type ContentService interface {
	ListSections(ctx context.Context, visibleOnly bool) ([]HomeSection, error)
	CreateSection(ctx context.Context, cmd SectionCommand) (HomeSection, error)
	UpdateSection(ctx context.Context, cmd SectionCommand) (HomeSection, error)
	DeleteSection(ctx context.Context, sectionID string) error
}

// OrderNotificationCommand describes a status-keyed customer notification.
type OrderNotificationCommand struct {
	OrderID      string
	Status       OrderStatus
	CustomerName string
	PhoneNumber  string
	Email        string
	TotalAmount  int64
	Currency     string
	Courier      string
	TrackingID   string
	TrackingURL  string
}

// NotificationResult reports which channels a notification went out on.
type NotificationResult struct {
	SMSSent    bool
	EmailSent  bool
	SMSID      string
	SkipReason string
}

// NotificationService fans order lifecycle updates out to SMS and email.
type NotificationService interface {
	NotifyOrderStatus(ctx context.Context, cmd OrderNotificationCommand) (NotificationResult, error)
}

// SystemService exposes operational health information.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}
