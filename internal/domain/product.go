package domain

import "time"

type Product struct {
	ID         int64
	Name       string
	PriceCents int64
	Category   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
