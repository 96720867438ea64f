// internal/domain/purchase.go
package domain

import "time"

// Purchase is an immutable record linking a user, a product, and the bill
// that was debited for it. Rows are inserted once per accepted purchase.
type Purchase struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	BillID    int64     `db:"bill_id" json:"bill_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Username and ProductTitle are populated from joined reads.
	Username     string `db:"username" json:"username,omitempty"`
	ProductTitle string `db:"product_title" json:"title,omitempty"`
}

// NewPurchase creates a new Purchase instance.
func NewPurchase(productID, userID, billID int64) *Purchase {
	return &Purchase{
		ProductID: productID,
		UserID:    userID,
		BillID:    billID,
		CreatedAt: time.Now().UTC(),
	}
}
