// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input provided")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrForbidden            = errors.New("access denied")
	ErrUnauthorized         = errors.New("authentication required")
	ErrSignatureMismatch    = errors.New("payload signature mismatch")
	ErrDuplicateTransaction = errors.New("transaction already processed")
	ErrBillNotFound         = errors.New("bill not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrInactiveAccount      = errors.New("account is not activated")
)

// IsError reports whether err matches the target sentinel error.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
