package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the bus.
const (
	TypeNewOrder      = "new_order_notification"
	TypeStatusUpdated = "order_status_updated"
)

// CategoryOrder tags every order-lifecycle event.
const CategoryOrder = "order"

// OrderSummary is the payload of order events.  It is a refresh hint for
// the dashboard, not a copy of the order.
type OrderSummary struct {
	OrderID    uint64 `json:"order_id"`
	UserName   string `json:"user_name"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Event is one bus message.  On the wire it is {"type": ..., "payload": ...}
// plus identification fields.
type Event struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Category string       `json:"category"`
	Payload  OrderSummary `json:"payload"`
	At       time.Time    `json:"at"`
}

// NewEvent stamps a fresh id and the current time.
func NewEvent(typ string, payload OrderSummary) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     typ,
		Category: CategoryOrder,
		Payload:  payload,
		At:       time.Now().UTC(),
	}
}
