// internal/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable item with a non-negative price.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"` // NUMERIC(20, 4) in DB
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// NewProduct creates a new Product instance.
func NewProduct(title, description string, price decimal.Decimal) *Product {
	return &Product{
		Title:       title,
		Description: description,
		Price:       price,
		CreatedAt:   time.Now().UTC(),
	}
}
