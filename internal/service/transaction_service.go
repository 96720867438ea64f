// internal/service/transaction_service.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// TransactionService records inbound funds credits against customer bills.
// Authorization is the caller's responsibility: the plain API path is
// admin-only and the webhook path trusts the verified payload.
type TransactionService interface {
	// Credit applies a non-negative amount to the bill's balance and
	// records a Transaction, atomically. externalID carries the payment
	// provider's transaction id on the webhook path and is nil otherwise.
	Credit(ctx context.Context, billID, userID int64, amount decimal.Decimal, externalID *int64) (*domain.Transaction, *domain.Bill, error)
	// CreditInTx is Credit running on an already-open transaction executor,
	// for callers that need the credit atomic with their own writes.
	CreditInTx(ctx context.Context, q repository.DBExecutor, billID, userID int64, amount decimal.Decimal, externalID *int64) (*domain.Transaction, *domain.Bill, error)
	// ListTransactions returns the transactions visible to the principal.
	ListTransactions(ctx context.Context, principal domain.Principal) ([]domain.Transaction, error)
	// GetTransaction returns a single transaction, enforcing the
	// record-level ownership check for non-admin principals.
	GetTransaction(ctx context.Context, id int64, principal domain.Principal) (*domain.Transaction, error)
	// GetBillHistory returns a paginated statement for a bill the
	// principal may see, with the total transaction count.
	GetBillHistory(ctx context.Context, billID int64, limit, offset int, principal domain.Principal) ([]domain.Transaction, int64, error)
}

// transactionService implements the TransactionService interface.
type transactionService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	billRepo        repository.BillRepository
	transactionRepo repository.TransactionRepository
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	billRepo repository.BillRepository,
	transactionRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) TransactionService {
	return &transactionService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		billRepo:        billRepo,
		transactionRepo: transactionRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// Credit applies the amount inside a single database transaction.
func (s *transactionService) Credit(ctx context.Context, billID, userID int64, amount decimal.Decimal, externalID *int64) (*domain.Transaction, *domain.Bill, error) {
	if amount.IsNegative() {
		return nil, nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("credit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("credit: transaction controller does not implement DBExecutor")
	}

	transaction, bill, err := s.CreditInTx(ctx, txExecutor, billID, userID, amount, externalID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("credit: failed to commit transaction: %w", err)
	}

	return transaction, bill, nil
}

// CreditInTx locks the bill row, applies the delta through the balance
// engine, persists the new balance, and inserts the transaction record.
// The caller owns the surrounding transaction, so either all of these
// writes commit or none do.
func (s *transactionService) CreditInTx(ctx context.Context, q repository.DBExecutor, billID, userID int64, amount decimal.Decimal, externalID *int64) (*domain.Transaction, *domain.Bill, error) {
	if amount.IsNegative() {
		return nil, nil, util.ErrInvalidInput
	}

	bill, err := s.billRepo.GetBillByIDForUpdate(ctx, q, billID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, nil, util.ErrBillNotFound
		}
		return nil, nil, fmt.Errorf("credit: failed to lock bill %d: %w", billID, err)
	}

	if err := bill.ApplyDelta(amount); err != nil {
		return nil, nil, err
	}

	if err := s.billRepo.SetBillBalance(ctx, q, billID, bill.Balance); err != nil {
		return nil, nil, fmt.Errorf("credit: failed to update bill balance: %w", err)
	}

	transaction := domain.NewTransaction(userID, billID, amount, externalID)
	if err := s.transactionRepo.CreateTransaction(ctx, q, transaction); err != nil {
		if util.IsError(err, util.ErrDuplicateTransaction) {
			return nil, nil, util.ErrDuplicateTransaction
		}
		return nil, nil, fmt.Errorf("credit: failed to create transaction: %w", err)
	}

	return transaction, bill, nil
}

// ListTransactions returns the transactions visible to the principal.
func (s *transactionService) ListTransactions(ctx context.Context, principal domain.Principal) ([]domain.Transaction, error) {
	transactions, err := s.transactionRepo.ListTransactions(ctx, s.dbExecutor, ScopeFor(principal))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// GetTransaction returns a single transaction with the ownership check applied.
func (s *transactionService) GetTransaction(ctx context.Context, id int64, principal domain.Principal) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	if err := Authorize(principal, transaction.Username); err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetBillHistory returns a paginated bill statement. The ownership check
// runs against the bill, not the individual transactions, so an owner sees
// every credit applied to their bill including webhook ones.
func (s *transactionService) GetBillHistory(ctx context.Context, billID int64, limit, offset int, principal domain.Principal) ([]domain.Transaction, int64, error) {
	bill, err := s.billRepo.GetBillByID(ctx, s.dbExecutor, billID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, 0, util.ErrBillNotFound
		}
		return nil, 0, fmt.Errorf("failed to get bill %d: %w", billID, err)
	}
	if err := Authorize(principal, bill.Username); err != nil {
		return nil, 0, err
	}

	transactions, totalCount, err := s.transactionRepo.GetTransactionsByBillID(ctx, s.dbExecutor, billID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get history for bill %d: %w", billID, err)
	}
	return transactions, totalCount, nil
}
