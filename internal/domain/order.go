package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentCard PaymentMethod = "card"
)

// Order is the immutable record of a successful checkout. Everything except
// Status is frozen at creation; the cart and coupon rows it references keep
// existing independently for audit.
type Order struct {
	ID       int64           `db:"id"`
	Code     string          `db:"code"`
	UserID   int64           `db:"user_id"`
	CartID   int64           `db:"cart_id"`
	CouponID *int64          `db:"coupon_id"`
	Address  string          `db:"address"`
	Phone    Phone           `db:"phone"`
	Email    string          `db:"email"`
	Payment  PaymentMethod   `db:"payment_method"`
	Bill     decimal.Decimal `db:"bill"`
	Discount decimal.Decimal `db:"discount"`
	Status   OrderStatus     `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const codeSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderCode builds a human-readable order code: hex unix timestamp plus
// an 8 character base36 suffix. The timestamp prefix makes collisions
// unlikely; the repository still retries on a unique-index conflict.
func NewOrderCode(now time.Time) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("order code entropy: %v", err))
	}

	for i, b := range buf {
		buf[i] = codeSuffixAlphabet[int(b)%len(codeSuffixAlphabet)]
	}

	return fmt.Sprintf("%x-%s", now.Unix(), buf)
}
