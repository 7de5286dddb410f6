package services

import (
	"testing"

	domain "github.com/quickfynd/api/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestComputeShippingFee(t *testing.T) {
	cart := []CartItem{
		{ProductID: "prod_a", UnitPrice: 100, Quantity: 2},
		{ProductID: "prod_b", UnitPrice: 200, Quantity: 1},
	}

	tests := []struct {
		name   string
		items  []CartItem
		policy *ShippingPolicy
		want   int64
	}{
		{
			name:   "nil_policy",
			items:  cart,
			policy: nil,
			want:   0,
		},
		{
			name:   "disabled_policy",
			items:  cart,
			policy: &ShippingPolicy{Enabled: false, Strategy: domain.ShippingFlatRate, FlatRate: 50},
			want:   0,
		},
		{
			name:   "flat_rate_below_threshold",
			items:  cart, // subtotal 400
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate, FlatRate: 50, FreeShippingMin: int64Ptr(500)},
			want:   50,
		},
		{
			name: "flat_rate_at_threshold_is_free",
			items: []CartItem{
				{ProductID: "prod_a", UnitPrice: 100, Quantity: 6},
			},
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate, FlatRate: 50, FreeShippingMin: int64Ptr(500)},
			want:   0,
		},
		{
			name:   "flat_rate_without_threshold",
			items:  cart,
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate, FlatRate: 75},
			want:   75,
		},
		{
			name:   "flat_rate_unset_rate_defaults_to_zero",
			items:  cart,
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate},
			want:   0,
		},
		{
			name:   "flat_rate_empty_cart_charges_flat_rate",
			items:  nil,
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate, FlatRate: 40, FreeShippingMin: int64Ptr(500)},
			want:   40,
		},
		{
			name:   "flat_rate_empty_cart_zero_threshold_is_free",
			items:  nil,
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingFlatRate, FlatRate: 40, FreeShippingMin: int64Ptr(0)},
			want:   0,
		},
		{
			name: "per_item_uncapped",
			items: []CartItem{
				{ProductID: "prod_a", UnitPrice: 100, Quantity: 2},
			},
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingPerItem, PerItemFee: 10, MaxItemFee: int64Ptr(30)},
			want:   20,
		},
		{
			name: "per_item_capped",
			items: []CartItem{
				{ProductID: "prod_a", UnitPrice: 100, Quantity: 3},
				{ProductID: "prod_b", UnitPrice: 200, Quantity: 2},
			},
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingPerItem, PerItemFee: 10, MaxItemFee: int64Ptr(30)},
			want:   30,
		},
		{
			name:   "per_item_empty_cart",
			items:  nil,
			policy: &ShippingPolicy{Enabled: true, Strategy: domain.ShippingPerItem, PerItemFee: 10},
			want:   0,
		},
		{
			name:   "unknown_strategy_charges_nothing",
			items:  cart,
			policy: &ShippingPolicy{Enabled: true, Strategy: "WEIGHT_BASED", FlatRate: 50, PerItemFee: 10},
			want:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeShippingFee(tc.items, tc.policy)
			if got != tc.want {
				t.Fatalf("ComputeShippingFee mismatch: want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestComputeShippingFeeDisabledOverridesStrategy(t *testing.T) {
	items := []CartItem{{ProductID: "prod_a", UnitPrice: 999, Quantity: 9}}
	for _, strategy := range []ShippingStrategy{domain.ShippingFlatRate, domain.ShippingPerItem, "FUTURE"} {
		policy := &ShippingPolicy{Enabled: false, Strategy: strategy, FlatRate: 50, PerItemFee: 10}
		if fee := ComputeShippingFee(items, policy); fee != 0 {
			t.Fatalf("expected zero fee for disabled %s policy, got %d", strategy, fee)
		}
	}
}

func TestComputeShippingFeeDeterministic(t *testing.T) {
	items := []CartItem{
		{ProductID: "prod_a", UnitPrice: 120, Quantity: 3},
		{ProductID: "prod_b", UnitPrice: 80, Quantity: 1},
	}
	policy := &ShippingPolicy{Enabled: true, Strategy: domain.ShippingPerItem, PerItemFee: 15, MaxItemFee: int64Ptr(50)}
	first := ComputeShippingFee(items, policy)
	for i := 0; i < 100; i++ {
		if got := ComputeShippingFee(items, policy); got != first {
			t.Fatalf("fee changed between calls: %d then %d", first, got)
		}
	}
}
