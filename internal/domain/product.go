package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read model consumed by the cart and pricing flows. The
// rating pair is a shared aggregate mutated only inside the rating
// transaction, never by a plain read-then-write.
type Product struct {
	ID          int64           `db:"id"`
	VendorID    int64           `db:"vendor_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Rating      float64         `db:"rating"`
	RatingCount int64           `db:"rating_count"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
