// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Transaction is an immutable record of a credit applied to a bill,
// attributed to a user. Rows are inserted once per accepted credit event
// and never updated afterwards.
type Transaction struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	BillID    int64           `db:"bill_id" json:"bill_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"` // NUMERIC(20, 4) in DB
	// ExternalID is the payment provider's transaction id for credits that
	// arrived via the webhook. A unique index on this column makes webhook
	// delivery idempotent: a replayed payload hits the constraint instead
	// of crediting twice. NULL for credits created through the admin API.
	ExternalID *int64    `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// Username is populated from the attributed user on joined reads.
	Username string `db:"username" json:"username,omitempty"`
}

// NewTransaction creates a new Transaction instance.
func NewTransaction(userID, billID int64, amount decimal.Decimal, externalID *int64) *Transaction {
	return &Transaction{
		UserID:     userID,
		BillID:     billID,
		Amount:     amount,
		ExternalID: externalID,
		CreatedAt:  time.Now().UTC(),
	}
}
