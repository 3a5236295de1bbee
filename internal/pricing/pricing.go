// Package pricing holds the cart money rules as pure functions so they can
// be tested without a database. The repository fetches plain cent amounts
// and persists whatever these functions return.
package pricing

type Rules struct {
	DefaultShippingCents       int64
	FreeShippingThresholdCents int64
}

func DefaultRules() Rules {
	return Rules{
		DefaultShippingCents:       5000,
		FreeShippingThresholdCents: 50000,
	}
}

type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	ShippingCents int64
	TotalCents    int64
}

// ComputeTotals derives the cart header amounts from the line subtotal and
// the discount stored on the cart. Shipping is waived above the threshold,
// the discount is dropped when the cart is empty, and the stored discount is
// otherwise carried as-is (it only changes when a new coupon is applied).
// Calling ComputeTotals twice with the same inputs yields the same result.
func ComputeTotals(subtotalCents, storedDiscountCents int64, rules Rules) Totals {
	shipping := rules.DefaultShippingCents
	if subtotalCents > rules.FreeShippingThresholdCents {
		shipping = 0
	}

	discount := storedDiscountCents
	if subtotalCents == 0 {
		discount = 0
	}

	return Totals{
		SubtotalCents: subtotalCents,
		DiscountCents: discount,
		ShippingCents: shipping,
		TotalCents:    subtotalCents - discount + shipping,
	}
}
