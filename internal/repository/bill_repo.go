// internal/repository/bill_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
)

// BillRepository defines the interface for customer bill data operations.
type BillRepository interface {
	// CreateBill adds a new bill to the database using the provided DBExecutor.
	CreateBill(ctx context.Context, q DBExecutor, bill *domain.Bill) error
	// GetBillByID retrieves a bill by its ID with the owner's username joined in.
	GetBillByID(ctx context.Context, q DBExecutor, id int64) (*domain.Bill, error)
	// GetBillByIDForUpdate retrieves a bill by its ID and locks the row for
	// the duration of the surrounding transaction (SELECT ... FOR UPDATE).
	// Every read-modify-write of a balance must go through this method so
	// concurrent mutations on the same bill serialize at the store.
	GetBillByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Bill, error)
	// SetBillBalance persists a balance computed by the balance engine.
	SetBillBalance(ctx context.Context, q DBExecutor, billID int64, balance decimal.Decimal) error
	// EnsureBill creates a bill with the given id and owner if it does not
	// exist yet, with a zero balance. The insert is conflict-free so two
	// concurrent callers cannot both create the row.
	EnsureBill(ctx context.Context, q DBExecutor, billID, userID int64) error
	// ListBills retrieves bills visible under the given scope, owner username joined in.
	ListBills(ctx context.Context, q DBExecutor, scope Scope) ([]domain.Bill, error)
}
