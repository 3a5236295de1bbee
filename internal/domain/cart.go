package domain

import "time"

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusCompleted CartStatus = "completed"
)

// Cart is the persisted cart header. All amounts are integer cents; the
// decimal conversion happens only when a DTO leaves the API boundary.
type Cart struct {
	ID            int64
	UserID        int64
	Status        CartStatus
	SubtotalCents int64
	DiscountCents int64
	ShippingCents int64
	TotalCents    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CartItem is a cart line. UnitPriceCents is a snapshot taken when the
// product was first added; later catalog price changes do not touch it.
type CartItem struct {
	ID              int64
	CartID          int64
	ProductID       int64
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CartLine is a display row: the item joined with the catalog name and
// category. Name falls back to a placeholder when the product was deleted
// from the catalog after being added.
type CartLine struct {
	ProductID       int64  `json:"product_id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	UnitPriceCents  int64  `json:"unit_price_cents"`
	Quantity        int    `json:"quantity"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// CartSummary mirrors the cart header amounts.
type CartSummary struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// CartView is the cached read model for a user's active cart.
type CartView struct {
	Lines   []CartLine  `json:"lines"`
	Summary CartSummary `json:"summary"`
}
