// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"billing-api/internal/domain"
)

// TransactionRepository defines the interface for transaction data operations.
// Transactions are insert-only: applied credits are never updated or deleted.
type TransactionRepository interface {
	// CreateTransaction adds a new transaction record using the provided DBExecutor.
	// It returns util.ErrDuplicateTransaction when the external id has
	// already been recorded (webhook replay).
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByID retrieves a transaction with the attributed username joined in.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// ListTransactions retrieves transactions visible under the given scope.
	ListTransactions(ctx context.Context, q DBExecutor, scope Scope) ([]domain.Transaction, error)
	// GetTransactionsByBillID retrieves a paginated bill statement along
	// with the total transaction count for the bill.
	GetTransactionsByBillID(ctx context.Context, q DBExecutor, billID int64, limit, offset int) ([]domain.Transaction, int64, error)
}
