package pricing

import (
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

// PricedItem is one cart line after coupon evaluation.
type PricedItem struct {
	CartItemID int64
	ProductID  int64
	Quantity   int32
	UnitPrice  decimal.Decimal
	PriceAfter decimal.Decimal
}

// Quote is the result of pricing a whole cart.
// Invariant: Total = Subtotal − DiscountTotal, both non-negative for
// non-negative prices.
type Quote struct {
	Items         []PricedItem
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
}

// Price applies the coupon (possibly nil) across all cart items at the
// given reference time.
func Price(items []domain.CartItem, coupon *domain.Coupon, at time.Time) Quote {
	quote := Quote{
		Items:         make([]PricedItem, 0, len(items)),
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
	}

	for _, item := range items {
		priceAfter := item.UnitPrice
		if Applicable(coupon, at, item.VendorID) {
			priceAfter = item.UnitPrice.Sub(Discount(coupon, item.UnitPrice))
		}

		qty := decimal.NewFromInt32(item.Quantity)
		quote.Subtotal = quote.Subtotal.Add(item.UnitPrice.Mul(qty))
		quote.DiscountTotal = quote.DiscountTotal.Add(item.UnitPrice.Sub(priceAfter).Mul(qty))

		quote.Items = append(quote.Items, PricedItem{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			PriceAfter: priceAfter,
		})
	}

	quote.Total = quote.Subtotal.Sub(quote.DiscountTotal)
	return quote
}
