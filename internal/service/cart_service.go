package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vhasckel/kata-cart/internal/cache"
	"github.com/vhasckel/kata-cart/internal/domain"
	"github.com/vhasckel/kata-cart/internal/pricing"
	"github.com/vhasckel/kata-cart/internal/repository"
)

// CartService is the cart engine. It keeps no per-user state: the user id
// comes in on every call and all cart state lives in the store.
type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
	}
}

// AddProduct resolves the current catalog price, upserts the line as a
// single insert-or-increment and refreshes the totals. Returns the updated
// listing.
func (s *CartService) AddProduct(ctx context.Context, userID, productID int64, quantity int) ([]domain.CartLine, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("error adding product: %w", ErrInvalidProduct)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("error adding product: %w", ErrInvalidQuantity)
	}

	cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error adding product: %w", err)
	}

	product, err := s.products.FindProductByID(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("error adding product: %w", ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error adding product: %w", err)
	}

	if err := s.repo.UpsertItem(ctx, cart.ID, productID, quantity, product.PriceCents); err != nil {
		return nil, fmt.Errorf("error adding product: %w", err)
	}
	if err := s.repo.RecomputeTotals(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("error adding product: %w", err)
	}

	invalidateCache(s, userID)

	lines, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("error adding product: %w", err)
	}
	return lines, nil
}

// RemoveProduct deletes the line; the delete and the existence check are the
// same statement, so a missing line surfaces as ErrProductNotInCart without
// a check-then-delete race.
func (s *CartService) RemoveProduct(ctx context.Context, userID, productID int64) ([]domain.CartLine, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("error removing product: %w", ErrInvalidProductID)
	}

	cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error removing product: %w", err)
	}

	removed, err := s.repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("error removing product: %w", err)
	}
	if !removed {
		return nil, fmt.Errorf("error removing product %d: %w", productID, ErrProductNotInCart)
	}

	if err := s.repo.RecomputeTotals(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("error removing product: %w", err)
	}

	invalidateCache(s, userID)

	lines, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("error removing product: %w", err)
	}
	return lines, nil
}

// ChangeQuantity sets a new quantity for an existing line. Zero or negative
// means removal, not an error.
func (s *CartService) ChangeQuantity(ctx context.Context, userID, productID int64, quantity int) ([]domain.CartLine, error) {
	if quantity <= 0 {
		return s.RemoveProduct(ctx, userID, productID)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("error changing quantity: %w", ErrInvalidProductID)
	}

	cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error changing quantity: %w", err)
	}

	updated, err := s.repo.UpdateItemQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("error changing quantity: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("error changing quantity for product %d: %w", productID, ErrProductNotInCart)
	}

	if err := s.repo.RecomputeTotals(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("error changing quantity: %w", err)
	}

	invalidateCache(s, userID)

	lines, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("error changing quantity: %w", err)
	}
	return lines, nil
}

// ApplyCoupon runs the evaluate-and-apply as one atomic store operation and
// maps the evaluation outcome onto the error taxonomy. Returns the refreshed
// summary on success.
func (s *CartService) ApplyCoupon(ctx context.Context, userID int64, code string) (*domain.CartSummary, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("error applying coupon: %w", ErrCouponRequired)
	}

	cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error applying coupon: %w", err)
	}

	eval, err := s.repo.ApplyCoupon(ctx, cart.ID, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("error applying coupon: %w", err)
	}

	switch eval.Status {
	case pricing.CouponInvalid:
		return nil, fmt.Errorf("error applying coupon: %w", ErrCouponInvalid)
	case pricing.CouponBelowMinimum:
		return nil, fmt.Errorf("error applying coupon: %w", &BelowMinimumError{
			Code:           eval.Code,
			MinAmountCents: eval.MinAmountCents,
		})
	}

	invalidateCache(s, userID)

	summary, err := s.repo.GetSummary(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("error applying coupon: %w", err)
	}
	return summary, nil
}

// GetCart returns the cached read model for the user's active cart, loading
// it from the store on a miss. Singleflight collapses concurrent misses for
// the same user.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.CartView, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {

		view, err := s.cache.Get(ctx, userID)
		if err == nil {
			return view, nil // view is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		lines, err := s.repo.ListItems(ctx, cart.ID)
		if err != nil {
			return nil, err
		}

		summary, err := s.repo.GetSummary(ctx, cart.ID)
		if err != nil {
			return nil, err
		}

		fresh := &domain.CartView{Lines: lines, Summary: *summary}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, fresh)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return fresh, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.CartView), nil
}

func (s *CartService) ListItems(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing cart: %w", err)
	}
	return view.Lines, nil
}

func (s *CartService) GetSummary(ctx context.Context, userID int64) (*domain.CartSummary, error) {
	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting summary: %w", err)
	}
	summary := view.Summary
	return &summary, nil
}

func invalidateCache(s *CartService, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
