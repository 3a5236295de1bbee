package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon as stored in the catalog. DiscountValue is a percentage for the
// percentage type and an amount in cents for the fixed type.
type Coupon struct {
	ID               int64
	Code             string
	Active           bool
	ExpiresAt        *time.Time
	DiscountType     DiscountType
	DiscountValue    int64
	MinAmountCents   int64
	MaxDiscountCents *int64
}
