package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validCoupon() *Coupon {
	return &Coupon{
		Code:     "SPRING20",
		Value:    20,
		StartsAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Scope:    CouponScopeAdmin,
		IsActive: true,
		OwnerID:  1,
	}
}

func TestCouponValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validCoupon().Validate())
	})

	t.Run("zero value", func(t *testing.T) {
		c := validCoupon()
		c.Value = 0
		require.ErrorIs(t, c.Validate(), ErrInvalidCouponValue)
	})

	t.Run("full price value", func(t *testing.T) {
		c := validCoupon()
		c.Value = 100
		require.ErrorIs(t, c.Validate(), ErrInvalidCouponValue)
	})

	t.Run("inverted dates", func(t *testing.T) {
		c := validCoupon()
		c.StartsAt, c.EndsAt = c.EndsAt, c.StartsAt
		require.ErrorIs(t, c.Validate(), ErrInvalidCouponDates)
	})

	t.Run("equal dates", func(t *testing.T) {
		c := validCoupon()
		c.EndsAt = c.StartsAt
		require.ErrorIs(t, c.Validate(), ErrInvalidCouponDates)
	})

	t.Run("unknown scope", func(t *testing.T) {
		c := validCoupon()
		c.Scope = "global"
		require.ErrorIs(t, c.Validate(), ErrInvalidCouponScope)
	})
}

func TestParseCouponScope(t *testing.T) {
	scope, err := ParseCouponScope("vendor")
	require.NoError(t, err)
	require.Equal(t, CouponScopeVendor, scope)

	_, err = ParseCouponScope("ADMIN")
	require.ErrorIs(t, err, ErrInvalidCouponScope)
}
