package services

// ComputeShippingFee evaluates the store shipping policy against the cart and
// returns the fee in the smallest currency unit. The function is pure and
// total: every combination of inputs yields a fee, never an error.
//
// Rules, in order:
//  1. nil or disabled policy charges nothing.
//  2. FLAT_RATE waives the fee once the cart subtotal reaches the configured
//     free-shipping threshold; below it the flat rate applies.
//  3. PER_ITEM charges per unit across the cart, capped when a cap is set.
//  4. Any other strategy value charges nothing. This fail-open default mirrors
//     how merchants expect an unconfigured policy to behave; rejecting the
//     policy instead is a product decision tracked with the storefront owners.
//
// Prices and quantities are assumed validated by the cart layer; this function
// does not re-check them.
func ComputeShippingFee(items []CartItem, policy *ShippingPolicy) int64 {
	if policy == nil || !policy.Enabled {
		return 0
	}

	switch policy.Strategy {
	case ShippingFlatRate:
		var subtotal int64
		for _, item := range items {
			subtotal += item.UnitPrice * int64(item.Quantity)
		}
		if policy.FreeShippingMin != nil && subtotal >= *policy.FreeShippingMin {
			return 0
		}
		return policy.FlatRate
	case ShippingPerItem:
		var units int64
		for _, item := range items {
			units += int64(item.Quantity)
		}
		fee := policy.PerItemFee * units
		if policy.MaxItemFee != nil && fee > *policy.MaxItemFee {
			fee = *policy.MaxItemFee
		}
		return fee
	default:
		return 0
	}
}
