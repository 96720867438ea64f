// internal/repository/postgres/purchase_pg.go
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

// PurchaseRepository implements repository.PurchaseRepository for PostgreSQL.
type PurchaseRepository struct {
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db *sqlx.DB) repository.PurchaseRepository {
	return &PurchaseRepository{}
}

// CreatePurchase inserts a new purchase record using the provided DBExecutor.
func (r *PurchaseRepository) CreatePurchase(ctx context.Context, q repository.DBExecutor, purchase *domain.Purchase) error {
	query := `INSERT INTO purchases (product_id, user_id, bill_id, created_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		purchase.ProductID,
		purchase.UserID,
		purchase.BillID,
		purchase.CreatedAt,
	).Scan(&purchase.ID)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// GetPurchaseByID retrieves a purchase with the username and product title joined in.
func (r *PurchaseRepository) GetPurchaseByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Purchase, error) {
	var purchase domain.Purchase
	query := `SELECT p.id, p.product_id, p.user_id, p.bill_id, p.created_at,
                     u.username, pr.title AS product_title
              FROM purchases p
              JOIN users u ON u.id = p.user_id
              JOIN products pr ON pr.id = p.product_id
              WHERE p.id = $1`
	err := q.GetContext(ctx, &purchase, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase by ID %d: %w", id, err)
	}
	return &purchase, nil
}

// ListPurchases retrieves purchases visible under the given scope.
func (r *PurchaseRepository) ListPurchases(ctx context.Context, q repository.DBExecutor, scope repository.Scope) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	query := `SELECT p.id, p.product_id, p.user_id, p.bill_id, p.created_at,
                     u.username, pr.title AS product_title
              FROM purchases p
              JOIN users u ON u.id = p.user_id
              JOIN products pr ON pr.id = p.product_id`
	args := []interface{}{}
	if !scope.All {
		query += ` WHERE u.username = $1`
		args = append(args, scope.OwnerUsername)
	}
	query += ` ORDER BY p.id`
	if err := q.SelectContext(ctx, &purchases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}
