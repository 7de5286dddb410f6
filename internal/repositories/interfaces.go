package repositories

import (
	"context"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Products() ProductRepository
	Users() UserRepository
	Carts() CartRepository
	AbandonedCarts() AbandonedCartRepository
	ShippingPolicies() ShippingPolicyRepository
	HomeSections() HomeSectionRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter scopes order queries to a store and optionally a customer.
type OrderListFilter struct {
	StoreID      string
	UserID       string
	GuestEmail   string
	Statuses     []domain.OrderStatus
	CreatedRange *domain.RangeQuery[time.Time]
	Sort         domain.SortOrder
	Pagination   domain.Pagination
}

// OrderRepository persists order documents and provides store-scoped queries.
// Listings hydrate line items with their current product records; dangling
// product references surface as nil Product pointers.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// ListByStore returns every order for the store sorted by creation time
	// descending (most recent first), the ordering the dashboard expects.
	ListByStore(ctx context.Context, storeID string) ([]domain.Order, error)
	// ListByCustomer returns one customer's orders for a store sorted by
	// creation time descending.
	ListByCustomer(ctx context.Context, storeID string, userID string) ([]domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// ProductListFilter controls catalog listings.
type ProductListFilter struct {
	StoreID    string
	Category   string
	InStock    *bool
	IDs        []string
	Pagination domain.Pagination
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// UserRepository stores registered customer identity records.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}

// CartRepository owns cart persistence keyed by customer.
type CartRepository interface {
	UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	Delete(ctx context.Context, userID string) error
}

// AbandonedCartRepository stores in-flight carts surfaced on the dashboard.
// FindByCustomer returns a RepositoryError with IsNotFound when the customer
// has no abandoned cart for the store.
type AbandonedCartRepository interface {
	Upsert(ctx context.Context, cart domain.AbandonedCart) (domain.AbandonedCart, error)
	FindByCustomer(ctx context.Context, storeID string, userID string) (domain.AbandonedCart, error)
	Delete(ctx context.Context, storeID string, userID string) error
}

// ShippingPolicyRepository stores the per-store shipping fee configuration.
type ShippingPolicyRepository interface {
	Get(ctx context.Context, storeID string) (domain.ShippingPolicy, error)
	Save(ctx context.Context, policy domain.ShippingPolicy) (domain.ShippingPolicy, error)
}

// HomeSectionRepository stores merchant-curated storefront sections.
type HomeSectionRepository interface {
	Insert(ctx context.Context, section domain.HomeSection) (domain.HomeSection, error)
	Update(ctx context.Context, section domain.HomeSection) (domain.HomeSection, error)
	Delete(ctx context.Context, sectionID string) error
	FindByID(ctx context.Context, sectionID string) (domain.HomeSection, error)
	// List returns sections ordered by SortOrder ascending; visibleOnly
	// restricts to sections shown on the public storefront.
	List(ctx context.Context, visibleOnly bool) ([]domain.HomeSection, error)
}

// CounterConfig adjusts counter step, ceiling, and starting value.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
