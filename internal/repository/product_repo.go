// internal/repository/product_repo.go
package repository

import (
	"context"

	"billing-api/internal/domain"
)

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	// CreateProduct adds a new product using the provided DBExecutor.
	CreateProduct(ctx context.Context, q DBExecutor, product *domain.Product) error
	// GetProductByID retrieves a product by its ID.
	GetProductByID(ctx context.Context, q DBExecutor, id int64) (*domain.Product, error)
	// ListProducts retrieves all products ordered by id.
	ListProducts(ctx context.Context, q DBExecutor) ([]domain.Product, error)
	// UpdateProduct replaces the title, description, and price of a product.
	UpdateProduct(ctx context.Context, q DBExecutor, product *domain.Product) error
	// DeleteProduct removes a product by its ID.
	DeleteProduct(ctx context.Context, q DBExecutor, id int64) error
}
