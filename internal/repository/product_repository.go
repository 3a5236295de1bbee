package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vhasckel/kata-cart/internal/domain"
)

func (r *Repository) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price_cents, COALESCE(category, ''), created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.PriceCents,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, price_cents, COALESCE(category, ''), created_at, updated_at
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.PriceCents,
			&p.Category,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) CreateProduct(ctx context.Context, name string, priceCents int64, category string) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, price_cents, category)
		VALUES ($1, $2, $3)
		RETURNING id, name, price_cents, COALESCE(category, ''), created_at, updated_at
	`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, name, priceCents, category).Scan(
		&p.ID,
		&p.Name,
		&p.PriceCents,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return &p, nil
}
