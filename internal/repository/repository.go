package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vhasckel/kata-cart/internal/domain"
	"github.com/vhasckel/kata-cart/internal/pricing"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrProductNotFound = errors.New("product not found")
)

// CartRepository defines the store primitives the cart engine needs.
// Every read-then-write sequence (get-or-create, quantity change, totals
// recomputation, coupon apply) is a single atomic operation here, so
// concurrent requests for the same cart cannot interleave between the read
// and the write.
type CartRepository interface {
	GetOrCreateActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	// UpsertItem inserts a new line or increments quantity and total of an
	// existing one, as one statement.
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int, unitPriceCents int64) error
	// DeleteItem reports whether a line was actually removed.
	DeleteItem(ctx context.Context, cartID, productID int64) (bool, error)
	// UpdateItemQuantity recomputes the line total from the stored unit
	// price snapshot and reports whether the line existed.
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error)
	RecomputeTotals(ctx context.Context, cartID int64) error
	// ApplyCoupon evaluates the code against the cart subtotal and, when
	// valid, persists the discount and refreshed totals in the same
	// transaction.
	ApplyCoupon(ctx context.Context, cartID int64, code string, now time.Time) (pricing.CouponEvaluation, error)
	ListItems(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	GetSummary(ctx context.Context, cartID int64) (*domain.CartSummary, error)
}

// ProductRepository is the product lookup collaborator plus the catalog CRUD.
type ProductRepository interface {
	FindProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, name string, priceCents int64, category string) (*domain.Product, error)
}
