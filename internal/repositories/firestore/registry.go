package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
	"github.com/quickfynd/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the typed
// accessors the service layer consumes.
type Registry struct {
	provider *pfirestore.Provider

	orders           *OrderRepository
	products         *ProductRepository
	users            *UserRepository
	carts            *CartRepository
	abandonedCarts   *AbandonedCartRepository
	shippingPolicies *ShippingPolicyRepository
	homeSections     *HomeSectionRepository
	counters         *CounterRepository
	health           repositories.HealthRepository
}

// RegistryOption customises registry construction.
type RegistryOption func(*Registry)

// WithHealthRepository overrides the health repository exposed by the registry.
func WithHealthRepository(health repositories.HealthRepository) RegistryOption {
	return func(r *Registry) {
		r.health = health
	}
}

// NewRegistry wires every Firestore repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore: provider is required")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider, products)
	if err != nil {
		return nil, err
	}
	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	abandoned, err := NewAbandonedCartRepository(provider)
	if err != nil {
		return nil, err
	}
	policies, err := NewShippingPolicyRepository(provider)
	if err != nil {
		return nil, err
	}
	sections, err := NewHomeSectionRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}

	registry := &Registry{
		provider:         provider,
		orders:           orders,
		products:         products,
		users:            users,
		carts:            carts,
		abandonedCarts:   abandoned,
		shippingPolicies: policies,
		homeSections:     sections,
		counters:         counters,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(registry)
		}
	}
	return registry, nil
}

var _ repositories.Registry = (*Registry)(nil)

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

// RunInTx executes fn within a Firestore transaction boundary.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("firestore: transaction function is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

func (r *Registry) Orders() repositories.OrderRepository                   { return r.orders }
func (r *Registry) Products() repositories.ProductRepository               { return r.products }
func (r *Registry) Users() repositories.UserRepository                     { return r.users }
func (r *Registry) Carts() repositories.CartRepository                     { return r.carts }
func (r *Registry) AbandonedCarts() repositories.AbandonedCartRepository   { return r.abandonedCarts }
func (r *Registry) ShippingPolicies() repositories.ShippingPolicyRepository {
	return r.shippingPolicies
}
func (r *Registry) HomeSections() repositories.HomeSectionRepository { return r.homeSections }
func (r *Registry) Counters() repositories.CounterRepository         { return r.counters }

// Health returns the configured health repository, or nil when none was wired.
func (r *Registry) Health() repositories.HealthRepository { return r.health }
