package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CouponScope is a closed variant set: admin coupons discount the whole
// store, vendor coupons only the owner's products.
type CouponScope string

const (
	CouponScopeAdmin  CouponScope = "admin"
	CouponScopeVendor CouponScope = "vendor"
)

func ParseCouponScope(s string) (CouponScope, error) {
	switch CouponScope(s) {
	case CouponScopeAdmin:
		return CouponScopeAdmin, nil
	case CouponScopeVendor:
		return CouponScopeVendor, nil
	default:
		return "", ErrInvalidCouponScope
	}
}

var (
	ErrInvalidCouponScope = errors.New("coupon scope must be admin or vendor")
	ErrInvalidCouponValue = errors.New("coupon value must be between 1 and 99 percent")
	ErrInvalidCouponDates = errors.New("coupon start date must be before end date")
)

type Coupon struct {
	ID        int64            `db:"id"`
	Code      string           `db:"code"`
	Value     int32            `db:"value"`
	MinAmount *decimal.Decimal `db:"min_amount"`
	MaxAmount *decimal.Decimal `db:"max_amount"`
	StartsAt  time.Time        `db:"starts_at"`
	EndsAt    time.Time        `db:"ends_at"`
	Scope     CouponScope      `db:"scope"`
	IsActive  bool             `db:"is_active"`
	OwnerID   int64            `db:"owner_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Validate enforces the creation invariants; applicability at checkout time
// is the pricing package's concern.
func (c *Coupon) Validate() error {
	if c.Value <= 0 || c.Value >= 100 {
		return ErrInvalidCouponValue
	}
	if !c.StartsAt.Before(c.EndsAt) {
		return ErrInvalidCouponDates
	}
	if _, err := ParseCouponScope(string(c.Scope)); err != nil {
		return err
	}
	return nil
}
