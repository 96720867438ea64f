// internal/domain/bill.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations

	"billing-api/internal/util"
)

// Bill represents a customer's monetary account. Its balance is a
// non-negative exact decimal; floating point is never used for money.
type Bill struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(20, 4) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`

	// Username is populated from the owning user on joined reads and is
	// not a column of the customer_bills table.
	Username string `db:"username" json:"username,omitempty"`
}

// NewBill creates a new Bill for the given user with a zero balance.
func NewBill(userID int64) *Bill {
	now := time.Now().UTC()
	return &Bill{
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyDelta applies a signed amount to the bill's balance: positive
// deltas credit, negative deltas debit. It fails with ErrInsufficientFunds
// when the result would be negative and leaves the bill untouched in that
// case. This is the single code path that changes a balance; callers
// persist the result inside the same database transaction that locked
// the row.
func (b *Bill) ApplyDelta(delta decimal.Decimal) error {
	next := b.Balance.Add(delta)
	if next.IsNegative() {
		return util.ErrInsufficientFunds
	}
	b.Balance = next
	b.UpdatedAt = time.Now().UTC()
	return nil
}
