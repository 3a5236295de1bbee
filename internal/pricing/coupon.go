package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/vhasckel/kata-cart/internal/domain"
)

type CouponStatus string

const (
	CouponValid        CouponStatus = "valid"
	CouponBelowMinimum CouponStatus = "below_minimum"
	CouponInvalid      CouponStatus = "invalid"
)

type CouponEvaluation struct {
	Status         CouponStatus
	Code           string
	DiscountCents  int64
	MinAmountCents int64
}

// NormalizeCode is applied to user input before any coupon lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EvaluateCoupon classifies a coupon against a cart subtotal. A nil coupon
// stands for "no active, unexpired coupon matched the code".
//
// Percentage discounts round to the nearest cent and are hard-capped at
// MaxDiscountCents when set. Fixed discounts are taken verbatim and are not
// capped by the subtotal; ComputeTotals only drops the discount when the
// cart is empty.
func EvaluateCoupon(c *domain.Coupon, subtotalCents int64, now time.Time) CouponEvaluation {
	if c == nil || !c.Active || (c.ExpiresAt != nil && !c.ExpiresAt.After(now)) {
		return CouponEvaluation{Status: CouponInvalid}
	}

	if subtotalCents < c.MinAmountCents {
		return CouponEvaluation{
			Status:         CouponBelowMinimum,
			Code:           c.Code,
			MinAmountCents: c.MinAmountCents,
		}
	}

	var discount int64
	switch c.DiscountType {
	case domain.DiscountPercentage:
		discount = int64(math.Round(float64(subtotalCents) * float64(c.DiscountValue) / 100))
		if c.MaxDiscountCents != nil && discount > *c.MaxDiscountCents {
			discount = *c.MaxDiscountCents
		}
	case domain.DiscountFixed:
		discount = c.DiscountValue
	}

	return CouponEvaluation{
		Status:        CouponValid,
		Code:          c.Code,
		DiscountCents: discount,
	}
}
