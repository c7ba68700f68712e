package repository

import "errors"

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrCartNotOpen     = errors.New("cart is not open")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponExists    = errors.New("coupon code already exists")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrRateNotFound    = errors.New("rate not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrDuplicateOrderCode signals a unique-index conflict on the order
	// code; the checkout service regenerates the code and retries.
	ErrDuplicateOrderCode = errors.New("order code already exists")
)
