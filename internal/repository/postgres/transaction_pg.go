// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction record using the provided DBExecutor.
// The unique index on external_id turns a replayed webhook credit into
// util.ErrDuplicateTransaction instead of a second insert.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, bill_id, amount, external_id, created_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.BillID,
		transaction.Amount,
		transaction.ExternalID,
		transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return util.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a transaction with the attributed username joined in.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT t.id, t.user_id, t.bill_id, t.amount, t.external_id, t.created_at, u.username
              FROM transactions t
              JOIN users u ON u.id = t.user_id
              WHERE t.id = $1`
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// ListTransactions retrieves transactions visible under the given scope.
func (r *TransactionRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, scope repository.Scope) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT t.id, t.user_id, t.bill_id, t.amount, t.external_id, t.created_at, u.username
              FROM transactions t
              JOIN users u ON u.id = t.user_id`
	args := []interface{}{}
	if !scope.All {
		query += ` WHERE u.username = $1`
		args = append(args, scope.OwnerUsername)
	}
	query += ` ORDER BY t.id`
	if err := q.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// GetTransactionsByBillID retrieves a paginated list of transactions for a
// specific bill. It performs two queries: one for the data and one for the
// total count.
func (r *TransactionRepository) GetTransactionsByBillID(ctx context.Context, q repository.DBExecutor, billID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	query := `
		SELECT t.id, t.user_id, t.bill_id, t.amount, t.external_id, t.created_at, u.username
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE t.bill_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &transactions, query, billID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for bill %d: %w", billID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE bill_id = $1`
	err = q.GetContext(ctx, &totalCount, countQuery, billID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for bill %d: %w", billID, err)
	}

	return transactions, totalCount, nil
}
