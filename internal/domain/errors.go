package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountArchived        = errors.New("account is archived")
	ErrItemNotFound           = errors.New("item not found")
	ErrItemUnavailable        = errors.New("item is not available")
	ErrInvalidPrice           = errors.New("item has no valid price")
	ErrOutOfStock             = errors.New("item is out of stock")
	ErrSelfPurchase           = errors.New("sellers cannot purchase their own items")
	ErrAlreadyPurchased       = errors.New("item already purchased")
	ErrPurchaseNotFound       = errors.New("purchase not found")
	ErrAlreadyRefunded        = errors.New("purchase already refunded")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrAlreadySubscribed      = errors.New("already subscribed to this item")
	ErrInvalidAmount          = errors.New("amount must be a non-zero integer")
	ErrInvalidTransactionType = errors.New("unknown transaction type")

	// ErrConstraintViolation covers uniqueness conflicts that do not match an
	// expected race (those are translated to ErrAlreadyPurchased/Refunded).
	ErrConstraintViolation = errors.New("constraint violation")
)

// InsufficientBalanceError reports a rejected debit together with the amount
// that was required and what the account actually held, so callers can
// prompt a top-up.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Required, e.Available)
}

// IsInsufficientBalance reports whether err is an InsufficientBalanceError.
func IsInsufficientBalance(err error) bool {
	var ib *InsufficientBalanceError
	return errors.As(err, &ib)
}
