// internal/repository/postgres/bill_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
)

// BillRepository implements repository.BillRepository for PostgreSQL.
type BillRepository struct {
}

// NewBillRepository creates a new BillRepository.
func NewBillRepository(db *sqlx.DB) repository.BillRepository {
	return &BillRepository{}
}

// CreateBill inserts a new bill into the database using the provided DBExecutor.
func (r *BillRepository) CreateBill(ctx context.Context, q repository.DBExecutor, bill *domain.Bill) error {
	query := `INSERT INTO customer_bills (user_id, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, bill.UserID, bill.Balance, bill.CreatedAt, bill.UpdatedAt).Scan(&bill.ID)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// GetBillByID retrieves a bill by its ID with the owner's username joined in.
func (r *BillRepository) GetBillByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	query := `SELECT b.id, b.user_id, b.balance, b.created_at, b.updated_at, u.username
              FROM customer_bills b
              JOIN users u ON u.id = b.user_id
              WHERE b.id = $1`
	err := q.GetContext(ctx, &bill, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bill by ID %d: %w", id, err)
	}
	return &bill, nil
}

// GetBillByIDForUpdate retrieves a bill by its ID and locks the row until the
// surrounding transaction commits or rolls back. Callers must run this inside
// a transaction; on a plain connection the lock is released immediately.
func (r *BillRepository) GetBillByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	query := `SELECT id, user_id, balance, created_at, updated_at
              FROM customer_bills WHERE id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &bill, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock bill %d: %w", id, err)
	}
	return &bill, nil
}

// SetBillBalance persists a balance computed by the balance engine.
func (r *BillRepository) SetBillBalance(ctx context.Context, q repository.DBExecutor, billID int64, balance decimal.Decimal) error {
	query := `UPDATE customer_bills SET balance = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, balance, time.Now().UTC(), billID)
	if err != nil {
		return fmt.Errorf("failed to update balance for bill %d: %w", billID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating bill %d: %w", billID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// EnsureBill creates a bill with the given id and owner if it does not exist
// yet. ON CONFLICT DO NOTHING makes the existence check and the insert one
// atomic statement, so concurrent webhook deliveries for the same new bill
// cannot race into creating it twice.
func (r *BillRepository) EnsureBill(ctx context.Context, q repository.DBExecutor, billID, userID int64) error {
	now := time.Now().UTC()
	query := `INSERT INTO customer_bills (id, user_id, balance, created_at, updated_at)
              VALUES ($1, $2, 0, $3, $3)
              ON CONFLICT (id) DO NOTHING`
	if _, err := q.ExecContext(ctx, query, billID, userID, now); err != nil {
		return fmt.Errorf("failed to ensure bill %d: %w", billID, err)
	}

	// The explicit-id insert bypasses the serial, so advance it past the
	// highest id. Otherwise a later CreateBill would be handed an id that is
	// already taken.
	seqQuery := `SELECT setval(pg_get_serial_sequence('customer_bills', 'id'),
	             GREATEST((SELECT MAX(id) FROM customer_bills), 1))`
	if _, err := q.ExecContext(ctx, seqQuery); err != nil {
		return fmt.Errorf("failed to advance bill id sequence: %w", err)
	}
	return nil
}

// ListBills retrieves bills visible under the given scope, owner username joined in.
func (r *BillRepository) ListBills(ctx context.Context, q repository.DBExecutor, scope repository.Scope) ([]domain.Bill, error) {
	bills := []domain.Bill{}
	query := `SELECT b.id, b.user_id, b.balance, b.created_at, b.updated_at, u.username
              FROM customer_bills b
              JOIN users u ON u.id = b.user_id`
	args := []interface{}{}
	if !scope.All {
		query += ` WHERE u.username = $1`
		args = append(args, scope.OwnerUsername)
	}
	query += ` ORDER BY b.id`
	if err := q.SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}
