package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vhasckel/kata-cart/internal/domain"
	"github.com/vhasckel/kata-cart/internal/pricing"
)

func (r *Repository) findActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, status, subtotal_cents, discount_cents, shipping_cents, total_cents, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND status = 'active'
	`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Status,
		&cart.SubtotalCents,
		&cart.DiscountCents,
		&cart.ShippingCents,
		&cart.TotalCents,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// GetOrCreateActiveCart returns the user's active cart, creating it with the
// default shipping cost if none exists. The insert rides on the partial
// unique index over active carts, so two concurrent callers end up with the
// same cart row.
func (r *Repository) GetOrCreateActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := r.findActiveCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	insert := `
		INSERT INTO carts (user_id, status, shipping_cents)
		VALUES ($1, 'active', $2)
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, userID, r.rules.DefaultShippingCents); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.findActiveCart(ctx, userID)
}

func (r *Repository) UpsertItem(ctx context.Context, cartID, productID int64, quantity int, unitPriceCents int64) error {
	totalCents := int64(quantity) * unitPriceCents

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price_cents, total_price_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    total_price_cents = cart_items.total_price_cents + EXCLUDED.total_price_cents,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query, cartID, productID, quantity, unitPriceCents, totalCents); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	err = insertCartEvent(ctx, tx, cartID, "item_added", map[string]any{
		"product_id":       productID,
		"quantity":         quantity,
		"unit_price_cents": unitPriceCents,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, cartID, productID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	err = insertCartEvent(ctx, tx, cartID, "item_removed", map[string]any{
		"product_id": productID,
	})
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}

// UpdateItemQuantity rebuilds the line total from the stored unit price
// snapshot in a single statement, so there is no read-modify-write window.
func (r *Repository) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE cart_items
		SET quantity = $3,
		    total_price_cents = unit_price_cents * $3,
		    updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = $1 AND product_id = $2
	`
	res, err := tx.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("failed to update item quantity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	err = insertCartEvent(ctx, tx, cartID, "quantity_changed", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit quantity update: %w", err)
	}
	return true, nil
}

// RecomputeTotals refreshes the derived cart header amounts from the current
// item set and the stored discount.
func (r *Repository) RecomputeTotals(ctx context.Context, cartID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.recomputeTotalsTx(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit totals: %w", err)
	}
	return nil
}

func (r *Repository) recomputeTotalsTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	var storedDiscount int64
	err := tx.QueryRowContext(ctx,
		`SELECT discount_cents FROM carts WHERE id = $1 FOR UPDATE`,
		cartID).Scan(&storedDiscount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCartNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}

	var subtotal int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price_cents), 0) FROM cart_items WHERE cart_id = $1`,
		cartID).Scan(&subtotal)
	if err != nil {
		return fmt.Errorf("failed to sum cart items: %w", err)
	}

	t := pricing.ComputeTotals(subtotal, storedDiscount, r.rules)

	_, err = tx.ExecContext(ctx, `
		UPDATE carts
		SET subtotal_cents = $2,
		    discount_cents = $3,
		    shipping_cents = $4,
		    total_cents = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		cartID, t.SubtotalCents, t.DiscountCents, t.ShippingCents, t.TotalCents)
	if err != nil {
		return fmt.Errorf("failed to update cart totals: %w", err)
	}

	return nil
}

// ApplyCoupon locks the cart row, evaluates the code against the subtotal
// read under that lock and, when the coupon is valid, persists the discount
// and refreshed totals before committing. Evaluation and application cannot
// be interleaved by another request.
func (r *Repository) ApplyCoupon(ctx context.Context, cartID int64, code string, now time.Time) (pricing.CouponEvaluation, error) {
	var none pricing.CouponEvaluation

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return none, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var subtotal int64
	err = tx.QueryRowContext(ctx,
		`SELECT subtotal_cents FROM carts WHERE id = $1 FOR UPDATE`,
		cartID).Scan(&subtotal)
	if errors.Is(err, sql.ErrNoRows) {
		return none, ErrCartNotFound
	}
	if err != nil {
		return none, fmt.Errorf("failed to lock cart: %w", err)
	}

	coupon, err := findCouponTx(ctx, tx, pricing.NormalizeCode(code), now)
	if err != nil {
		return none, err
	}

	eval := pricing.EvaluateCoupon(coupon, subtotal, now)
	if eval.Status != pricing.CouponValid {
		return eval, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE carts SET discount_cents = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		cartID, eval.DiscountCents)
	if err != nil {
		return none, fmt.Errorf("failed to apply discount: %w", err)
	}

	if err := r.recomputeTotalsTx(ctx, tx, cartID); err != nil {
		return none, err
	}

	err = insertCartEvent(ctx, tx, cartID, "coupon_applied", map[string]any{
		"code":           eval.Code,
		"discount_cents": eval.DiscountCents,
	})
	if err != nil {
		return none, err
	}

	if err := tx.Commit(); err != nil {
		return none, fmt.Errorf("failed to commit coupon: %w", err)
	}
	return eval, nil
}

func findCouponTx(ctx context.Context, tx *sql.Tx, code string, now time.Time) (*domain.Coupon, error) {
	query := `
		SELECT id, code, active, expires_at, discount_type, discount_value, min_amount_cents, max_discount_cents
		FROM coupons
		WHERE code = $1 AND active = TRUE AND (expires_at IS NULL OR expires_at > $2)
	`

	var c domain.Coupon
	err := tx.QueryRowContext(ctx, query, code, now).Scan(
		&c.ID,
		&c.Code,
		&c.Active,
		&c.ExpiresAt,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinAmountCents,
		&c.MaxDiscountCents,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// ListItems joins the lines with the catalog for display. Lines whose
// product was deleted keep their snapshotted pricing and get a placeholder
// name. Ordered by insertion time.
func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	query := `
		SELECT ci.product_id,
		       COALESCE(p.name, '(removed product)'),
		       COALESCE(p.category, ''),
		       ci.unit_price_cents,
		       ci.quantity,
		       ci.total_price_cents
		FROM cart_items ci
		LEFT JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		err := rows.Scan(
			&l.ProductID,
			&l.Name,
			&l.Category,
			&l.UnitPriceCents,
			&l.Quantity,
			&l.TotalPriceCents,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (r *Repository) GetSummary(ctx context.Context, cartID int64) (*domain.CartSummary, error) {
	query := `
		SELECT subtotal_cents, discount_cents, shipping_cents, total_cents
		FROM carts
		WHERE id = $1
	`

	var s domain.CartSummary
	err := r.db.QueryRowContext(ctx, query, cartID).Scan(
		&s.SubtotalCents,
		&s.DiscountCents,
		&s.ShippingCents,
		&s.TotalCents,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart summary: %w", err)
	}

	return &s, nil
}
