package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vhasckel/kata-cart/internal/domain"
	"github.com/vhasckel/kata-cart/internal/repository"
)

// ProductService is the catalog side: plain lookup and insert.
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(ctx context.Context, name string, priceCents int64, category string) (*domain.Product, error) {
	if strings.TrimSpace(name) == "" || priceCents <= 0 {
		return nil, fmt.Errorf("error creating product: %w", ErrMissingProduct)
	}

	product, err := s.repo.CreateProduct(ctx, name, priceCents, category)
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("error getting product: %w", ErrInvalidProductID)
	}

	product, err := s.repo.FindProductByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("error getting product: %w", ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product: %w", err)
	}
	return product, nil
}
