package service

import (
	"context"
	"sync"
	"time"

	"github.com/vhasckel/kata-cart/internal/cache"
	"github.com/vhasckel/kata-cart/internal/domain"
	"github.com/vhasckel/kata-cart/internal/pricing"
	"github.com/vhasckel/kata-cart/internal/repository"
)

// mockCartRepository keeps carts in memory with the same semantics as the
// Postgres implementation: upsert increments, delete reports affected rows,
// recompute derives the header from the lines via the pricing functions.
type mockCartRepository struct {
	m            sync.RWMutex
	err          error
	rules        pricing.Rules
	nextCartID   int64
	activeByUser map[int64]int64
	carts        map[int64]*domain.Cart
	items        map[int64][]*domain.CartItem
	names        map[int64]string
	coupons      map[string]*domain.Coupon
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		rules:        pricing.DefaultRules(),
		activeByUser: map[int64]int64{},
		carts:        map[int64]*domain.Cart{},
		items:        map[int64][]*domain.CartItem{},
		names:        map[int64]string{},
		coupons:      map[string]*domain.Coupon{},
	}
}

func (m *mockCartRepository) GetOrCreateActiveCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if id, ok := m.activeByUser[userID]; ok {
		cart := *m.carts[id]
		return &cart, nil
	}
	m.nextCartID++
	cart := &domain.Cart{
		ID:            m.nextCartID,
		UserID:        userID,
		Status:        domain.CartStatusActive,
		ShippingCents: m.rules.DefaultShippingCents,
	}
	m.carts[cart.ID] = cart
	m.activeByUser[userID] = cart.ID
	out := *cart
	return &out, nil
}

func (m *mockCartRepository) UpsertItem(_ context.Context, cartID, productID int64, quantity int, unitPriceCents int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	total := int64(quantity) * unitPriceCents
	for _, item := range m.items[cartID] {
		if item.ProductID == productID {
			item.Quantity += quantity
			item.TotalPriceCents += total
			return nil
		}
	}
	m.items[cartID] = append(m.items[cartID], &domain.CartItem{
		CartID:          cartID,
		ProductID:       productID,
		Quantity:        quantity,
		UnitPriceCents:  unitPriceCents,
		TotalPriceCents: total,
	})
	return nil
}

func (m *mockCartRepository) DeleteItem(_ context.Context, cartID, productID int64) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for i, item := range m.items[cartID] {
		if item.ProductID == productID {
			m.items[cartID] = append(m.items[cartID][:i], m.items[cartID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepository) UpdateItemQuantity(_ context.Context, cartID, productID int64, quantity int) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, item := range m.items[cartID] {
		if item.ProductID == productID {
			item.Quantity = quantity
			item.TotalPriceCents = item.UnitPriceCents * int64(quantity)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepository) RecomputeTotals(_ context.Context, cartID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	return m.recomputeLocked(cartID)
}

func (m *mockCartRepository) recomputeLocked(cartID int64) error {
	cart, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	var subtotal int64
	for _, item := range m.items[cartID] {
		subtotal += item.TotalPriceCents
	}
	t := pricing.ComputeTotals(subtotal, cart.DiscountCents, m.rules)
	cart.SubtotalCents = t.SubtotalCents
	cart.DiscountCents = t.DiscountCents
	cart.ShippingCents = t.ShippingCents
	cart.TotalCents = t.TotalCents
	return nil
}

func (m *mockCartRepository) ApplyCoupon(_ context.Context, cartID int64, code string, now time.Time) (pricing.CouponEvaluation, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return pricing.CouponEvaluation{}, m.err
	}
	cart, ok := m.carts[cartID]
	if !ok {
		return pricing.CouponEvaluation{}, repository.ErrCartNotFound
	}
	coupon := m.coupons[pricing.NormalizeCode(code)]
	eval := pricing.EvaluateCoupon(coupon, cart.SubtotalCents, now)
	if eval.Status != pricing.CouponValid {
		return eval, nil
	}
	cart.DiscountCents = eval.DiscountCents
	if err := m.recomputeLocked(cartID); err != nil {
		return pricing.CouponEvaluation{}, err
	}
	return eval, nil
}

func (m *mockCartRepository) ListItems(_ context.Context, cartID int64) ([]domain.CartLine, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	lines := []domain.CartLine{}
	for _, item := range m.items[cartID] {
		name, ok := m.names[item.ProductID]
		if !ok {
			name = "(removed product)"
		}
		lines = append(lines, domain.CartLine{
			ProductID:       item.ProductID,
			Name:            name,
			UnitPriceCents:  item.UnitPriceCents,
			Quantity:        item.Quantity,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	return lines, nil
}

func (m *mockCartRepository) GetSummary(_ context.Context, cartID int64) (*domain.CartSummary, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &domain.CartSummary{
		SubtotalCents: cart.SubtotalCents,
		DiscountCents: cart.DiscountCents,
		ShippingCents: cart.ShippingCents,
		TotalCents:    cart.TotalCents,
	}, nil
}

type mockProductRepository struct {
	m        sync.RWMutex
	err      error
	nextID   int64
	products map[int64]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: map[int64]*domain.Product{}}
}

func (m *mockProductRepository) FindProductByID(_ context.Context, id int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	out := *p
	return &out, nil
}

func (m *mockProductRepository) ListProducts(_ context.Context) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) CreateProduct(_ context.Context, name string, priceCents int64, category string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	p := &domain.Product{ID: m.nextID, Name: name, PriceCents: priceCents, Category: category}
	m.products[p.ID] = p
	out := *p
	return &out, nil
}

func (m *mockProductRepository) add(id int64, name string, priceCents int64) {
	m.m.Lock()
	defer m.m.Unlock()
	if id > m.nextID {
		m.nextID = id
	}
	m.products[id] = &domain.Product{ID: id, Name: name, PriceCents: priceCents}
}

type mockCache struct {
	m    sync.RWMutex
	view *domain.CartView
	err  error
}

func (m *mockCache) Get(context.Context, int64) (*domain.CartView, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.view == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.view, nil
}

func (m *mockCache) Set(_ context.Context, _ int64, view *domain.CartView) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.view = view
	return m.err
}

func (m *mockCache) Delete(context.Context, int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.view = nil
	return m.err
}

func (m *mockCache) getView() *domain.CartView {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.view
}
