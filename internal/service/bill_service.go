// internal/service/bill_service.go
package service

import (
	"context"
	"fmt"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// BillService exposes customer bill reads and administrative creation.
// Bills are created with a zero balance; every balance change afterwards
// goes through the balance engine via a credit or a purchase, so the
// stored balance cannot drift from the transaction and purchase history.
type BillService interface {
	// CreateBill creates a zero-balance bill owned by the given user.
	CreateBill(ctx context.Context, userID int64) (*domain.Bill, error)
	// ListBills returns the bills visible to the principal.
	ListBills(ctx context.Context, principal domain.Principal) ([]domain.Bill, error)
	// GetBill returns a single bill, enforcing the record-level ownership
	// check for non-admin principals.
	GetBill(ctx context.Context, id int64, principal domain.Principal) (*domain.Bill, error)
}

// billService implements the BillService interface.
type billService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	billRepo   repository.BillRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewBillService creates a new instance of BillService.
func NewBillService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	billRepo repository.BillRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) BillService {
	return &billService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		billRepo:   billRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// CreateBill creates a zero-balance bill for an existing user.
func (s *billService) CreateBill(ctx context.Context, userID int64) (*domain.Bill, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("create bill: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("create bill: transaction controller does not implement DBExecutor")
	}

	owner, err := s.userRepo.GetUserByID(ctx, txExecutor, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("create bill: failed to get user %d: %w", userID, err)
	}

	bill := domain.NewBill(owner.ID)
	if err := s.billRepo.CreateBill(ctx, txExecutor, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	bill.Username = owner.Username

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create bill: failed to commit transaction: %w", err)
	}

	return bill, nil
}

// ListBills returns the bills visible to the principal.
func (s *billService) ListBills(ctx context.Context, principal domain.Principal) ([]domain.Bill, error) {
	bills, err := s.billRepo.ListBills(ctx, s.dbExecutor, ScopeFor(principal))
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

// GetBill returns a single bill with the ownership check applied.
func (s *billService) GetBill(ctx context.Context, id int64, principal domain.Principal) (*domain.Bill, error) {
	bill, err := s.billRepo.GetBillByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bill %d: %w", id, err)
	}
	if err := Authorize(principal, bill.Username); err != nil {
		return nil, err
	}
	return bill, nil
}
