package cache

import (
	"context"
	"errors"

	"github.com/vhasckel/kata-cart/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.CartView, error)
	Set(ctx context.Context, userID int64, view *domain.CartView) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
