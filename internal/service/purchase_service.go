// internal/service/purchase_service.go
package service

import (
	"context"
	"fmt"

	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// PurchaseService records outbound funds debits for purchases.
type PurchaseService interface {
	// Purchase debits the bill by the product's price and records a
	// Purchase, atomically. Non-admin principals may only debit bills they
	// own. An unaffordable purchase fails with ErrInsufficientFunds and
	// leaves every row unchanged.
	Purchase(ctx context.Context, productID, userID, billID int64, principal domain.Principal) (*domain.Purchase, *domain.Bill, error)
	// RecordPurchase inserts a purchase row without touching any balance.
	// It exists for administrative record corrections; because it performs
	// no debit, it never bypasses the balance engine.
	RecordPurchase(ctx context.Context, productID, userID, billID int64) (*domain.Purchase, error)
	// ListPurchases returns the purchases visible to the principal.
	ListPurchases(ctx context.Context, principal domain.Principal) ([]domain.Purchase, error)
	// GetPurchase returns a single purchase, enforcing the record-level
	// ownership check for non-admin principals.
	GetPurchase(ctx context.Context, id int64, principal domain.Principal) (*domain.Purchase, error)
}

// purchaseService implements the PurchaseService interface.
type purchaseService struct {
	dbBeginner   db.DBTxBeginner
	dbExecutor   repository.DBExecutor
	userRepo     repository.UserRepository
	billRepo     repository.BillRepository
	productRepo  repository.ProductRepository
	purchaseRepo repository.PurchaseRepository
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
}

// NewPurchaseService creates a new instance of PurchaseService.
func NewPurchaseService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	billRepo repository.BillRepository,
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) PurchaseService {
	return &purchaseService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		userRepo:     userRepo,
		billRepo:     billRepo,
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		beginTx:      beginTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
	}
}

// Purchase performs the locked read-modify-write for a purchase.
func (s *purchaseService) Purchase(ctx context.Context, productID, userID, billID int64, principal domain.Principal) (*domain.Purchase, *domain.Bill, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("purchase: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("purchase: transaction controller does not implement DBExecutor")
	}

	product, err := s.productRepo.GetProductByID(ctx, txExecutor, productID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, nil, util.ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("purchase: failed to get product %d: %w", productID, err)
	}

	bill, err := s.billRepo.GetBillByIDForUpdate(ctx, txExecutor, billID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, nil, util.ErrBillNotFound
		}
		return nil, nil, fmt.Errorf("purchase: failed to lock bill %d: %w", billID, err)
	}

	if !principal.IsAdmin() {
		owner, err := s.userRepo.GetUserByID(ctx, txExecutor, bill.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("purchase: failed to get bill owner %d: %w", bill.UserID, err)
		}
		if err := Authorize(principal, owner.Username); err != nil {
			return nil, nil, err
		}
	}

	if err := bill.ApplyDelta(product.Price.Neg()); err != nil {
		return nil, nil, err
	}

	if err := s.billRepo.SetBillBalance(ctx, txExecutor, billID, bill.Balance); err != nil {
		return nil, nil, fmt.Errorf("purchase: failed to update bill balance: %w", err)
	}

	purchase := domain.NewPurchase(productID, userID, billID)
	if err := s.purchaseRepo.CreatePurchase(ctx, txExecutor, purchase); err != nil {
		return nil, nil, fmt.Errorf("purchase: failed to create purchase: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("purchase: failed to commit transaction: %w", err)
	}

	return purchase, bill, nil
}

// RecordPurchase inserts a purchase record only; balances are untouched.
func (s *purchaseService) RecordPurchase(ctx context.Context, productID, userID, billID int64) (*domain.Purchase, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("record purchase: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("record purchase: transaction controller does not implement DBExecutor")
	}

	if _, err := s.productRepo.GetProductByID(ctx, txExecutor, productID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrProductNotFound
		}
		return nil, fmt.Errorf("record purchase: failed to get product %d: %w", productID, err)
	}
	if _, err := s.billRepo.GetBillByID(ctx, txExecutor, billID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrBillNotFound
		}
		return nil, fmt.Errorf("record purchase: failed to get bill %d: %w", billID, err)
	}

	purchase := domain.NewPurchase(productID, userID, billID)
	if err := s.purchaseRepo.CreatePurchase(ctx, txExecutor, purchase); err != nil {
		return nil, fmt.Errorf("record purchase: failed to create purchase: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("record purchase: failed to commit transaction: %w", err)
	}

	return purchase, nil
}

// ListPurchases returns the purchases visible to the principal.
func (s *purchaseService) ListPurchases(ctx context.Context, principal domain.Principal) ([]domain.Purchase, error) {
	purchases, err := s.purchaseRepo.ListPurchases(ctx, s.dbExecutor, ScopeFor(principal))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// GetPurchase returns a single purchase with the ownership check applied.
func (s *purchaseService) GetPurchase(ctx context.Context, id int64, principal domain.Principal) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetPurchaseByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase %d: %w", id, err)
	}
	if err := Authorize(principal, purchase.Username); err != nil {
		return nil, err
	}
	return purchase, nil
}
