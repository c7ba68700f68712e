package service

import "errors"

var (
	// ErrEmptyCart rejects checkout on a cart with no line items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMinAmountNotReached rejects a coupon whose minimum order amount
	// exceeds the cart subtotal. Checked before any discount is computed,
	// never silently ignored.
	ErrMinAmountNotReached = errors.New("cart subtotal is below the coupon minimum amount")

	// ErrCheckoutConflict means a concurrent checkout won the race on the
	// same cart. The losing call gets no order; retrying is pointless
	// because the cart is already ordered.
	ErrCheckoutConflict = errors.New("cart was already checked out")

	// ErrRateValueOutOfRange rejects rating values outside 1..5.
	ErrRateValueOutOfRange = errors.New("rate must be between 1 and 5")
)
