package pricing

import (
	"testing"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeCoupon(scope domain.CouponScope, value int32, ownerID int64) *domain.Coupon {
	return &domain.Coupon{
		ID:       1,
		Code:     "SPRING",
		Value:    value,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Scope:    scope,
		IsActive: true,
		OwnerID:  ownerID,
	}
}

func item(id, productID, vendorID int64, qty int32, price string) domain.CartItem {
	return domain.CartItem{
		ID:        id,
		ProductID: productID,
		VendorID:  vendorID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestPriceAdminCouponDiscountsAllItems(t *testing.T) {
	items := []domain.CartItem{
		item(1, 10, 100, 2, "50.00"),
		item(2, 11, 200, 1, "30.00"),
	}

	quote := Price(items, activeCoupon(domain.CouponScopeAdmin, 10, 1), now)

	require.True(t, quote.Subtotal.Equal(decimal.RequireFromString("130.00")),
		"subtotal = %s", quote.Subtotal)
	// 10% off 50.00 is 5.00 per unit × 2, off 30.00 is 3.00 × 1.
	require.True(t, quote.DiscountTotal.Equal(decimal.RequireFromString("13.00")),
		"discount = %s", quote.DiscountTotal)
	require.True(t, quote.Total.Equal(decimal.RequireFromString("117.00")),
		"total = %s", quote.Total)

	require.True(t, quote.Items[0].PriceAfter.Equal(decimal.RequireFromString("45.00")))
	require.True(t, quote.Items[1].PriceAfter.Equal(decimal.RequireFromString("27.00")))
}

func TestPriceVendorCouponDiscountsOnlyOwnerItems(t *testing.T) {
	items := []domain.CartItem{
		item(1, 10, 100, 1, "80.00"),
		item(2, 11, 200, 1, "80.00"),
	}

	quote := Price(items, activeCoupon(domain.CouponScopeVendor, 25, 100), now)

	require.True(t, quote.Items[0].PriceAfter.Equal(decimal.RequireFromString("60.00")),
		"vendor item priced %s", quote.Items[0].PriceAfter)
	require.True(t, quote.Items[1].PriceAfter.Equal(decimal.RequireFromString("80.00")),
		"other vendor item priced %s", quote.Items[1].PriceAfter)
	require.True(t, quote.DiscountTotal.Equal(decimal.RequireFromString("20.00")))
}

func TestPriceMaxAmountCapsPerUnitDiscount(t *testing.T) {
	maxAmount := decimal.RequireFromString("5.00")
	coupon := activeCoupon(domain.CouponScopeAdmin, 50, 1)
	coupon.MaxAmount = &maxAmount

	quote := Price([]domain.CartItem{item(1, 10, 100, 3, "100.00")}, coupon, now)

	// 50% would be 50.00 per unit; the cap holds it at 5.00.
	require.True(t, quote.Items[0].PriceAfter.Equal(decimal.RequireFromString("95.00")))
	require.True(t, quote.DiscountTotal.Equal(decimal.RequireFromString("15.00")))
	require.True(t, quote.Total.Equal(decimal.RequireFromString("285.00")))
}

func TestPriceRoundsHalfAwayFromZero(t *testing.T) {
	// 15% of 0.99 = 0.1485, rounds to 0.15.
	quote := Price([]domain.CartItem{item(1, 10, 100, 1, "0.99")},
		activeCoupon(domain.CouponScopeAdmin, 15, 1), now)

	require.True(t, quote.Items[0].PriceAfter.Equal(decimal.RequireFromString("0.84")),
		"price after = %s", quote.Items[0].PriceAfter)
}

func TestPriceNilCouponKeepsUnitPrices(t *testing.T) {
	items := []domain.CartItem{
		item(1, 10, 100, 2, "19.99"),
	}

	quote := Price(items, nil, now)

	require.True(t, quote.DiscountTotal.IsZero())
	require.True(t, quote.Subtotal.Equal(quote.Total))
	require.True(t, quote.Items[0].PriceAfter.Equal(items[0].UnitPrice))
}

func TestPriceTotalsInvariant(t *testing.T) {
	items := []domain.CartItem{
		item(1, 10, 100, 3, "12.34"),
		item(2, 11, 100, 1, "0.01"),
		item(3, 12, 200, 7, "99.99"),
	}

	for _, coupon := range []*domain.Coupon{
		nil,
		activeCoupon(domain.CouponScopeAdmin, 33, 1),
		activeCoupon(domain.CouponScopeVendor, 99, 100),
	} {
		quote := Price(items, coupon, now)

		require.True(t, quote.Total.Equal(quote.Subtotal.Sub(quote.DiscountTotal)))
		require.False(t, quote.Total.IsNegative())
		require.False(t, quote.DiscountTotal.IsNegative())
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	items := []domain.CartItem{
		item(1, 10, 100, 2, "41.67"),
		item(2, 11, 200, 5, "3.33"),
	}
	coupon := activeCoupon(domain.CouponScopeAdmin, 17, 1)

	first := Price(items, coupon, now)
	second := Price(items, coupon, now)

	require.True(t, first.Total.Equal(second.Total))
	require.True(t, first.DiscountTotal.Equal(second.DiscountTotal))
}

func TestApplicable(t *testing.T) {
	tests := []struct {
		name     string
		coupon   *domain.Coupon
		at       time.Time
		vendorID int64
		want     bool
	}{
		{name: "nil coupon", coupon: nil, at: now, vendorID: 100, want: false},
		{
			name: "inactive",
			coupon: func() *domain.Coupon {
				c := activeCoupon(domain.CouponScopeAdmin, 10, 1)
				c.IsActive = false
				return c
			}(),
			at: now, vendorID: 100, want: false,
		},
		{
			name:   "before window",
			coupon: activeCoupon(domain.CouponScopeAdmin, 10, 1),
			at:     now.Add(-2 * time.Hour), vendorID: 100, want: false,
		},
		{
			name:   "after window",
			coupon: activeCoupon(domain.CouponScopeAdmin, 10, 1),
			at:     now.Add(2 * time.Hour), vendorID: 100, want: false,
		},
		{
			name:   "admin scope matches any vendor",
			coupon: activeCoupon(domain.CouponScopeAdmin, 10, 1),
			at:     now, vendorID: 9999, want: true,
		},
		{
			name:   "vendor scope matches owner",
			coupon: activeCoupon(domain.CouponScopeVendor, 10, 100),
			at:     now, vendorID: 100, want: true,
		},
		{
			name:   "vendor scope rejects other vendor",
			coupon: activeCoupon(domain.CouponScopeVendor, 10, 100),
			at:     now, vendorID: 200, want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Applicable(tt.coupon, tt.at, tt.vendorID))
		})
	}
}
