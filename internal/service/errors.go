package service

import (
	"errors"
	"fmt"

	"github.com/vhasckel/kata-cart/internal/domain"
)

var (
	ErrInvalidProduct   = errors.New("a product id is required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidProductID = errors.New("product id must be a positive integer")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductNotInCart = errors.New("product is not in the cart")
	ErrCouponRequired   = errors.New("coupon code is required")
	ErrCouponInvalid    = errors.New("coupon is invalid, expired or not found")
	ErrMissingProduct   = errors.New("product name and a positive price are required")
)

// BelowMinimumError carries the coupon's minimum spend so the message can
// name both the code and the formatted amount.
type BelowMinimumError struct {
	Code           string
	MinAmountCents int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("a minimum of %s is required to use coupon %s", domain.FormatBRL(e.MinAmountCents), e.Code)
}
