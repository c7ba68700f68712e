// Package pricing turns a cart snapshot plus an optional coupon into priced
// line items and order totals. Everything here is pure: same inputs, same
// quote, which is what makes checkout retries and tests deterministic.
//
// Money is shopspring decimal. Percentage discounts are rounded half away
// from zero to 2 decimal places, once per unit price; that single rounding
// rule is applied everywhere money is derived.
package pricing

import (
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Applicable reports whether the coupon discounts a product of the given
// vendor at the given instant. A false result is a normal branch, not an
// error: the item simply keeps its unit price.
func Applicable(c *domain.Coupon, at time.Time, vendorID int64) bool {
	if c == nil || !c.IsActive {
		return false
	}

	if !c.StartsAt.Before(at) || !at.Before(c.EndsAt) {
		return false
	}

	switch c.Scope {
	case domain.CouponScopeAdmin:
		return true
	case domain.CouponScopeVendor:
		return c.OwnerID == vendorID
	default:
		return false
	}
}

// Discount computes the per-unit discount amount: unitPrice × value/100,
// capped at the coupon's max amount when one is set.
func Discount(c *domain.Coupon, unitPrice decimal.Decimal) decimal.Decimal {
	amount := unitPrice.
		Mul(decimal.NewFromInt32(c.Value)).
		Div(oneHundred).
		Round(2)

	if c.MaxAmount != nil && amount.GreaterThan(*c.MaxAmount) {
		return *c.MaxAmount
	}

	return amount
}
