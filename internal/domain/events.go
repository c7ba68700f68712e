package domain

// OrderPlacedEvent is emitted through the outbox when a checkout commits.
// Delivery is best effort; a lost notification never unwinds the order.
type OrderPlacedEvent struct {
	EventID  int64  `json:"event_id,omitempty"`
	OrderID  int64  `json:"order_id"`
	Code     string `json:"code"`
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Bill     string `json:"bill"`
	Discount string `json:"discount"`
}
