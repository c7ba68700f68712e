package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusOpen    CartStatus = "open"
	CartStatusOrdered CartStatus = "ordered"
)

// Cart holds a user's (or anonymous session's) pending line items. A user
// has at most one open cart referenced as their active cart; carts are never
// deleted, they flip to ordered exactly once at checkout.
type Cart struct {
	ID           int64      `db:"id"`
	UserID       *int64     `db:"user_id"`
	SessionToken *uuid.UUID `db:"session_token"`
	Status       CartStatus `db:"status"`

	Items []CartItem `db:"-"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CartItem references a product with a quantity. PriceAfter starts at the
// product's price when the item is added and is only rewritten by checkout
// pricing, freezing the discounted price into the order snapshot.
type CartItem struct {
	ID         int64           `db:"id"`
	CartID     int64           `db:"cart_id"`
	ProductID  int64           `db:"product_id"`
	Quantity   int32           `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	PriceAfter decimal.Decimal `db:"price_after"`

	// Joined from products for coupon scope evaluation and display.
	ProductName string `db:"product_name"`
	VendorID    int64  `db:"vendor_id"`
}
