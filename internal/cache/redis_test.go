package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhasckel/kata-cart/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func sampleView() *domain.CartView {
	return &domain.CartView{
		Lines: []domain.CartLine{
			{ProductID: 1, Name: "Notebook", UnitPriceCents: 200000, Quantity: 1, TotalPriceCents: 200000},
			{ProductID: 2, Name: "Mouse", UnitPriceCents: 5000, Quantity: 2, TotalPriceCents: 10000},
		},
		Summary: domain.CartSummary{
			SubtotalCents: 210000,
			ShippingCents: 0,
			TotalCents:    210000,
		},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	view := sampleView()

	viewJSON, _ := json.Marshal(view)
	mr.Set(cacheKey(123), string(viewJSON))

	result, err := cache.Get(ctx, 123)
	require.NoError(t, err)
	assert.Len(t, result.Lines, 2)
	assert.Equal(t, int64(1), result.Lines[0].ProductID)
	assert.Equal(t, int64(210000), result.Summary.TotalCents)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(cacheKey(123), "not json")

	result, err := cache.Get(context.Background(), 123)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestSet_ThenGet(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	view := sampleView()

	require.NoError(t, cache.Set(ctx, 123, view))

	result, err := cache.Get(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, view.Summary, result.Summary)
	assert.Len(t, result.Lines, 2)
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, 123, sampleView()))
	require.NoError(t, cache.Delete(ctx, 123))

	_, err := cache.Get(ctx, 123)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete_MissingKeyIsNoop(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, cache.Delete(context.Background(), 42))
}
