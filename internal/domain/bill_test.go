// internal/domain/bill_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"billing-api/internal/util"
)

func TestNewBill(t *testing.T) {
	bill := NewBill(7)

	assert.Equal(t, int64(7), bill.UserID)
	assert.True(t, bill.Balance.IsZero())
	assert.False(t, bill.CreatedAt.IsZero())
}

func TestApplyDelta(t *testing.T) {
	t.Run("CreditIncreasesBalance", func(t *testing.T) {
		bill := &Bill{Balance: decimal.RequireFromString("100.00")}

		err := bill.ApplyDelta(decimal.RequireFromString("50.25"))

		assert.NoError(t, err)
		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("150.25")))
	})

	t.Run("DebitDecreasesBalance", func(t *testing.T) {
		bill := &Bill{Balance: decimal.RequireFromString("100.00")}

		err := bill.ApplyDelta(decimal.RequireFromString("-40.00"))

		assert.NoError(t, err)
		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("60.00")))
	})

	t.Run("DebitToExactlyZero", func(t *testing.T) {
		bill := &Bill{Balance: decimal.RequireFromString("40.00")}

		err := bill.ApplyDelta(decimal.RequireFromString("-40.00"))

		assert.NoError(t, err)
		assert.True(t, bill.Balance.IsZero())
	})

	t.Run("OverdraftIsRejectedAndBalanceUnchanged", func(t *testing.T) {
		bill := &Bill{Balance: decimal.RequireFromString("39.99")}

		err := bill.ApplyDelta(decimal.RequireFromString("-40.00"))

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("39.99")))
	})

	t.Run("ZeroDeltaIsANoOp", func(t *testing.T) {
		bill := &Bill{Balance: decimal.RequireFromString("10.00")}

		err := bill.ApplyDelta(decimal.Zero)

		assert.NoError(t, err)
		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("CentsStayExactAcrossManyDeltas", func(t *testing.T) {
		// 0.1+0.2 style drift must not occur with decimal balances.
		bill := &Bill{Balance: decimal.Zero}

		for i := 0; i < 10; i++ {
			assert.NoError(t, bill.ApplyDelta(decimal.RequireFromString("0.10")))
		}

		assert.True(t, bill.Balance.Equal(decimal.RequireFromString("1.00")))
	})
}
