package domain

import "time"

// Rate is one user's rating of one product. A second rate by the same user
// is an edit, not a duplicate.
type Rate struct {
	ID        int64   `db:"id"`
	ProductID int64   `db:"product_id"`
	UserID    int64   `db:"user_id"`
	Value     int32   `db:"value"`
	Comment   *string `db:"comment"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
