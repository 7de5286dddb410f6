package domain

import "strings"

// IdentityKind distinguishes registered accounts from guest checkouts.
type IdentityKind string

const (
	// IdentityRegistered marks an identity backed by a user account.
	IdentityRegistered IdentityKind = "registered"
	// IdentityGuest marks an identity synthesised from guest checkout fields.
	IdentityGuest IdentityKind = "guest"
)

// CustomerIdentity is the resolved grouping key that collapses registered and
// guest orders into one addressable customer. Two orders belong to the same
// customer iff their identities are equal.
type CustomerIdentity struct {
	Kind IdentityKind
	Key  string
}

// RegisteredIdentity builds the identity for an account-backed order.
func RegisteredIdentity(userID string) CustomerIdentity {
	return CustomerIdentity{Kind: IdentityRegistered, Key: userID}
}

// GuestIdentity builds the identity for a guest order keyed by email or, when
// no email was captured, by the order's own identifier.
func GuestIdentity(key string) CustomerIdentity {
	return CustomerIdentity{Kind: IdentityGuest, Key: key}
}

// IsGuest reports whether the identity came from a guest checkout.
func (c CustomerIdentity) IsGuest() bool {
	return c.Kind == IdentityGuest
}

// String renders the identity as a stable dashboard-facing key.
func (c CustomerIdentity) String() string {
	if c.Kind == IdentityGuest {
		return "guest-" + c.Key
	}
	return c.Key
}

// ResolveIdentity derives the customer identity for an order. Registered
// orders resolve to their user reference. Guest orders resolve to the guest
// email when one was captured; otherwise the order is its own singleton group,
// since email is the only reliable merge signal for guests.
func ResolveIdentity(order Order) CustomerIdentity {
	if !order.IsGuest {
		return RegisteredIdentity(order.UserID)
	}
	if email := strings.TrimSpace(order.GuestEmail); email != "" {
		return GuestIdentity(email)
	}
	return GuestIdentity(order.ID)
}
