package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
)

const shippingPolicyCollection = "shippingPolicies"

type shippingPolicyDocument struct {
	Enabled         bool      `firestore:"enabled"`
	Strategy        string    `firestore:"strategy"`
	FlatRate        int64     `firestore:"flatRate"`
	FreeShippingMin *int64    `firestore:"freeShippingMin,omitempty"`
	PerItemFee      int64     `firestore:"perItemFee"`
	MaxItemFee      *int64    `firestore:"maxItemFee,omitempty"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

// ShippingPolicyRepository stores one shipping policy document per store.
type ShippingPolicyRepository struct {
	base *pfirestore.BaseRepository[shippingPolicyDocument]
}

// NewShippingPolicyRepository constructs a Firestore-backed shipping policy repository.
func NewShippingPolicyRepository(provider *pfirestore.Provider) (*ShippingPolicyRepository, error) {
	if provider == nil {
		return nil, errors.New("shipping policy repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[shippingPolicyDocument](provider, shippingPolicyCollection, nil, nil)
	return &ShippingPolicyRepository{base: base}, nil
}

// Get loads the store's shipping policy. The store ID is the document ID.
func (r *ShippingPolicyRepository) Get(ctx context.Context, storeID string) (domain.ShippingPolicy, error) {
	if r == nil || r.base == nil {
		return domain.ShippingPolicy{}, errors.New("shipping policy repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return domain.ShippingPolicy{}, errors.New("shipping policy repository: store id is required")
	}

	doc, err := r.base.Get(ctx, storeID)
	if err != nil {
		return domain.ShippingPolicy{}, err
	}
	return domain.ShippingPolicy{
		StoreID:         doc.ID,
		Enabled:         doc.Data.Enabled,
		Strategy:        domain.ShippingStrategy(doc.Data.Strategy),
		FlatRate:        doc.Data.FlatRate,
		FreeShippingMin: doc.Data.FreeShippingMin,
		PerItemFee:      doc.Data.PerItemFee,
		MaxItemFee:      doc.Data.MaxItemFee,
		UpdatedAt:       doc.Data.UpdatedAt,
	}, nil
}

// Save upserts the store's shipping policy.
func (r *ShippingPolicyRepository) Save(ctx context.Context, policy domain.ShippingPolicy) (domain.ShippingPolicy, error) {
	if r == nil || r.base == nil {
		return domain.ShippingPolicy{}, errors.New("shipping policy repository not initialised")
	}
	storeID := strings.TrimSpace(policy.StoreID)
	if storeID == "" {
		return domain.ShippingPolicy{}, errors.New("shipping policy repository: store id is required")
	}

	updatedAt := policy.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	doc := shippingPolicyDocument{
		Enabled:         policy.Enabled,
		Strategy:        string(policy.Strategy),
		FlatRate:        policy.FlatRate,
		FreeShippingMin: policy.FreeShippingMin,
		PerItemFee:      policy.PerItemFee,
		MaxItemFee:      policy.MaxItemFee,
		UpdatedAt:       updatedAt,
	}
	if _, err := r.base.Set(ctx, storeID, doc); err != nil {
		return domain.ShippingPolicy{}, err
	}

	saved := policy
	saved.StoreID = storeID
	saved.UpdatedAt = updatedAt
	return saved, nil
}
