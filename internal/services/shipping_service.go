package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quickfynd/api/internal/repositories"
)

var (
	// ErrShippingInvalidPolicy signals a policy with negative rates or an unknown strategy.
	ErrShippingInvalidPolicy = errors.New("shipping: invalid policy")
	// ErrShippingStoreRequired signals a missing store scope.
	ErrShippingStoreRequired = errors.New("shipping: store id is required")
)

// ShippingServiceDeps bundles collaborators for the shipping service.
type ShippingServiceDeps struct {
	Policies repositories.ShippingPolicyRepository
	CacheTTL time.Duration
	Clock    func() time.Time
}

type shippingService struct {
	policies repositories.ShippingPolicyRepository
	cache    *quoteCache
	clock    func() time.Time
}

var _ ShippingService = (*shippingService)(nil)

// NewShippingService wires the policy repository into a ShippingService.
func NewShippingService(deps ShippingServiceDeps) (ShippingService, error) {
	if deps.Policies == nil {
		return nil, errors.New("shipping service: policy repository is required")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	now := func() time.Time { return clock().UTC() }
	return &shippingService{
		policies: deps.Policies,
		cache:    newQuoteCache(ttl, now),
		clock:    now,
	}, nil
}

func (s *shippingService) GetPolicy(ctx context.Context, storeID string) (ShippingPolicy, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return ShippingPolicy{}, ErrShippingStoreRequired
	}
	policy, err := s.policies.Get(ctx, storeID)
	if err != nil {
		if isRepoNotFound(err) {
			// A store without configuration ships for free; hand back a
			// disabled policy rather than an error.
			return ShippingPolicy{StoreID: storeID, Enabled: false}, nil
		}
		return ShippingPolicy{}, err
	}
	return policy, nil
}

func (s *shippingService) SavePolicy(ctx context.Context, policy ShippingPolicy) (ShippingPolicy, error) {
	policy.StoreID = strings.TrimSpace(policy.StoreID)
	if policy.StoreID == "" {
		return ShippingPolicy{}, ErrShippingStoreRequired
	}
	if err := validatePolicy(policy); err != nil {
		return ShippingPolicy{}, err
	}
	policy.UpdatedAt = s.clock()
	saved, err := s.policies.Save(ctx, policy)
	if err != nil {
		return ShippingPolicy{}, err
	}
	s.cache.Invalidate(policy.StoreID)
	return saved, nil
}

func (s *shippingService) QuoteCart(ctx context.Context, storeID string, items []CartItem) (int64, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return 0, ErrShippingStoreRequired
	}

	key := buildQuoteCacheKey(storeID, items)
	if fee, ok := s.cache.Get(storeID, key); ok {
		return fee, nil
	}

	policy, err := s.GetPolicy(ctx, storeID)
	if err != nil {
		return 0, err
	}

	fee := ComputeShippingFee(items, &policy)
	s.cache.Put(storeID, key, fee)
	return fee, nil
}

func validatePolicy(policy ShippingPolicy) error {
	switch policy.Strategy {
	case ShippingFlatRate, ShippingPerItem:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrShippingInvalidPolicy, policy.Strategy)
	}
	if policy.FlatRate < 0 || policy.PerItemFee < 0 {
		return fmt.Errorf("%w: rates cannot be negative", ErrShippingInvalidPolicy)
	}
	if policy.FreeShippingMin != nil && *policy.FreeShippingMin < 0 {
		return fmt.Errorf("%w: free shipping minimum cannot be negative", ErrShippingInvalidPolicy)
	}
	if policy.MaxItemFee != nil && *policy.MaxItemFee < 0 {
		return fmt.Errorf("%w: per-item cap cannot be negative", ErrShippingInvalidPolicy)
	}
	return nil
}

// quoteCache memoises fee quotes per store with a TTL. Entries for a store are
// dropped wholesale when its policy changes.
type quoteCache struct {
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
	m   map[string]map[string]quoteCacheEntry
}

type quoteCacheEntry struct {
	fee     int64
	expires time.Time
}

func newQuoteCache(ttl time.Duration, now func() time.Time) *quoteCache {
	return &quoteCache{ttl: ttl, now: now, m: make(map[string]map[string]quoteCacheEntry)}
}

func (c *quoteCache) Get(storeID, key string) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.m[storeID][key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.m[storeID], key)
		c.mu.Unlock()
		return 0, false
	}
	return entry.fee, true
}

func (c *quoteCache) Put(storeID, key string, fee int64) {
	c.mu.Lock()
	store, ok := c.m[storeID]
	if !ok {
		store = make(map[string]quoteCacheEntry)
		c.m[storeID] = store
	}
	store[key] = quoteCacheEntry{fee: fee, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *quoteCache) Invalidate(storeID string) {
	c.mu.Lock()
	delete(c.m, storeID)
	c.mu.Unlock()
}

func buildQuoteCacheKey(storeID string, items []CartItem) string {
	parts := make([]string, 0, len(items)+1)
	parts = append(parts, storeID)
	for _, item := range items {
		parts = append(parts, item.ProductID+","+strconv.FormatInt(item.UnitPrice, 10)+","+strconv.Itoa(item.Quantity))
	}
	return strings.Join(parts, "|")
}
