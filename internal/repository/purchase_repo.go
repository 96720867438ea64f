// internal/repository/purchase_repo.go
package repository

import (
	"context"

	"billing-api/internal/domain"
)

// PurchaseRepository defines the interface for purchase data operations.
// Purchases are insert-only: applied debits are never updated or deleted.
type PurchaseRepository interface {
	// CreatePurchase adds a new purchase record using the provided DBExecutor.
	CreatePurchase(ctx context.Context, q DBExecutor, purchase *domain.Purchase) error
	// GetPurchaseByID retrieves a purchase with the username and product title joined in.
	GetPurchaseByID(ctx context.Context, q DBExecutor, id int64) (*domain.Purchase, error)
	// ListPurchases retrieves purchases visible under the given scope.
	ListPurchases(ctx context.Context, q DBExecutor, scope Scope) ([]domain.Purchase, error)
}
