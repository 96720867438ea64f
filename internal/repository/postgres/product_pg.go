// internal/repository/postgres/product_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
)

// ProductRepository implements repository.ProductRepository for PostgreSQL.
type ProductRepository struct {
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &ProductRepository{}
}

// CreateProduct inserts a new product using the provided DBExecutor.
func (r *ProductRepository) CreateProduct(ctx context.Context, q repository.DBExecutor, product *domain.Product) error {
	query := `INSERT INTO products (title, description, price, created_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, product.Title, product.Description, product.Price, product.CreatedAt).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProductByID retrieves a product by its ID.
func (r *ProductRepository) GetProductByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Product, error) {
	var product domain.Product
	query := `SELECT id, title, description, price, created_at FROM products WHERE id = $1`
	err := q.GetContext(ctx, &product, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// ListProducts retrieves all products ordered by id.
func (r *ProductRepository) ListProducts(ctx context.Context, q repository.DBExecutor) ([]domain.Product, error) {
	products := []domain.Product{}
	query := `SELECT id, title, description, price, created_at FROM products ORDER BY id`
	if err := q.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces the title, description, and price of a product.
func (r *ProductRepository) UpdateProduct(ctx context.Context, q repository.DBExecutor, product *domain.Product) error {
	query := `UPDATE products SET title = $1, description = $2, price = $3 WHERE id = $4`
	result, err := q.ExecContext(ctx, query, product.Title, product.Description, product.Price, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating product %d: %w", product.ID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by its ID.
func (r *ProductRepository) DeleteProduct(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after deleting product %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
