package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/quickfynd/api/internal/domain"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
)

const abandonedCartCollection = "abandonedCarts"

type abandonedCartDocument struct {
	StoreID    string             `firestore:"storeId"`
	UserID     string             `firestore:"userId"`
	Items      []cartItemDocument `firestore:"items"`
	Subtotal   int64              `firestore:"subtotal"`
	LastSeenAt time.Time          `firestore:"lastSeenAt"`
	CreatedAt  time.Time          `firestore:"createdAt"`
}

// AbandonedCartRepository stores at most one abandoned cart per (store, customer).
type AbandonedCartRepository struct {
	base *pfirestore.BaseRepository[abandonedCartDocument]
}

// NewAbandonedCartRepository constructs a Firestore-backed abandoned cart repository.
func NewAbandonedCartRepository(provider *pfirestore.Provider) (*AbandonedCartRepository, error) {
	if provider == nil {
		return nil, errors.New("abandoned cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[abandonedCartDocument](provider, abandonedCartCollection, nil, nil)
	return &AbandonedCartRepository{base: base}, nil
}

// Upsert stores the abandoned cart record, preserving the original CreatedAt
// across refreshes of the same record.
func (r *AbandonedCartRepository) Upsert(ctx context.Context, cart domain.AbandonedCart) (domain.AbandonedCart, error) {
	if r == nil || r.base == nil {
		return domain.AbandonedCart{}, errors.New("abandoned cart repository not initialised")
	}
	docID, err := abandonedCartDocID(cart.StoreID, cart.UserID)
	if err != nil {
		return domain.AbandonedCart{}, err
	}

	now := time.Now().UTC()
	doc := abandonedCartDocument{
		StoreID:    strings.TrimSpace(cart.StoreID),
		UserID:     strings.TrimSpace(cart.UserID),
		Items:      encodeCartItems(cart.Items),
		Subtotal:   cart.Subtotal,
		LastSeenAt: cart.LastSeenAt,
		CreatedAt:  cart.CreatedAt,
	}
	if doc.LastSeenAt.IsZero() {
		doc.LastSeenAt = now
	}
	if existing, err := r.base.Get(ctx, docID); err == nil {
		doc.CreatedAt = existing.Data.CreatedAt
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	if _, err := r.base.Set(ctx, docID, doc); err != nil {
		return domain.AbandonedCart{}, err
	}

	saved := cart
	saved.ID = docID
	saved.LastSeenAt = doc.LastSeenAt
	saved.CreatedAt = doc.CreatedAt
	return saved, nil
}

// FindByCustomer loads the abandoned cart for the (store, customer) pair.
func (r *AbandonedCartRepository) FindByCustomer(ctx context.Context, storeID string, userID string) (domain.AbandonedCart, error) {
	if r == nil || r.base == nil {
		return domain.AbandonedCart{}, errors.New("abandoned cart repository not initialised")
	}
	docID, err := abandonedCartDocID(storeID, userID)
	if err != nil {
		return domain.AbandonedCart{}, err
	}

	doc, err := r.base.Get(ctx, docID)
	if err != nil {
		return domain.AbandonedCart{}, err
	}
	return domain.AbandonedCart{
		ID:         doc.ID,
		StoreID:    doc.Data.StoreID,
		UserID:     doc.Data.UserID,
		Items:      decodeCartItems(doc.Data.Items),
		Subtotal:   doc.Data.Subtotal,
		LastSeenAt: doc.Data.LastSeenAt,
		CreatedAt:  doc.Data.CreatedAt,
	}, nil
}

// Delete removes the abandoned cart record for the (store, customer) pair.
func (r *AbandonedCartRepository) Delete(ctx context.Context, storeID string, userID string) error {
	if r == nil || r.base == nil {
		return errors.New("abandoned cart repository not initialised")
	}
	docID, err := abandonedCartDocID(storeID, userID)
	if err != nil {
		return err
	}

	return r.base.Delete(ctx, docID)
}

// abandonedCartDocID derives the deterministic document id enforcing the
// one-record-per-customer-per-store invariant.
func abandonedCartDocID(storeID string, userID string) (string, error) {
	storeID = strings.TrimSpace(storeID)
	userID = strings.TrimSpace(userID)
	if storeID == "" || userID == "" {
		return "", errors.New("abandoned cart repository: store id and user id are required")
	}
	return storeID + "__" + userID, nil
}
