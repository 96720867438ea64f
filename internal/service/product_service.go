// internal/service/product_service.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
)

// ProductService exposes the product catalog. Reads are public; writes are
// restricted to administrators by the HTTP layer.
type ProductService interface {
	CreateProduct(ctx context.Context, title, description string, price decimal.Decimal) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, title, description string, price decimal.Decimal) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// productService implements the ProductService interface.
type productService struct {
	dbExecutor  repository.DBExecutor
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService.
func NewProductService(dbExecutor repository.DBExecutor, productRepo repository.ProductRepository) ProductService {
	return &productService{
		dbExecutor:  dbExecutor,
		productRepo: productRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, title, description string, price decimal.Decimal) (*domain.Product, error) {
	if title == "" || price.IsNegative() {
		return nil, util.ErrInvalidInput
	}
	product := domain.NewProduct(title, description, price)
	if err := s.productRepo.CreateProduct(ctx, s.dbExecutor, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, title, description string, price decimal.Decimal) (*domain.Product, error) {
	if title == "" || price.IsNegative() {
		return nil, util.ErrInvalidInput
	}
	product, err := s.productRepo.GetProductByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	product.Title = title
	product.Description = description
	product.Price = price
	if err := s.productRepo.UpdateProduct(ctx, s.dbExecutor, product); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.DeleteProduct(ctx, s.dbExecutor, id); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return util.ErrNotFound
		}
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}
