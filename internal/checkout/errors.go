package checkout

import "errors"

var (
	ErrEmptyOrder            = errors.New("order must contain at least one item")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrPaymentMethodDisabled = errors.New("payment method is disabled")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrCartSessionRequired   = errors.New("cart session not found")
	ErrOrderNotRetryable     = errors.New("order is not awaiting payment")
)
