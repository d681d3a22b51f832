// Package queue carries order notifications from the in-process bus to the
// message broker and from the broker into the notifications table.
package queue

import (
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
)

// OrderEventsQueue is the durable queue every order event goes through.
const OrderEventsQueue = "order.events"

// OrderEvent is the broker payload for one bus event.  It holds enough for
// consumers to log or persist the notification without reading the orders
// table.
type OrderEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	OrderID    uint64 `json:"order_id"`
	UserName   string `json:"user_name"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	At         string `json:"at"`
}

// FromBusEvent flattens a bus event into its broker payload.
func FromBusEvent(ev notify.Event) OrderEvent {
	return OrderEvent{
		ID:         ev.ID,
		Type:       ev.Type,
		Category:   ev.Category,
		OrderID:    ev.Payload.OrderID,
		UserName:   ev.Payload.UserName,
		TotalPrice: ev.Payload.TotalPrice,
		Status:     ev.Payload.Status,
		Message:    ev.Payload.Message,
		At:         ev.At.UTC().Format(time.RFC3339Nano),
	}
}

// Notification is the row persisted for the admin notification list.  A
// missing or malformed timestamp falls back to now.
func (e OrderEvent) Notification() model.Notification {
	at, err := time.Parse(time.RFC3339Nano, e.At)
	if err != nil {
		at = time.Now().UTC()
	}
	return model.Notification{
		ID:        e.ID,
		Type:      e.Type,
		Category:  e.Category,
		Message:   e.Message,
		OrderID:   e.OrderID,
		CreatedAt: at,
	}
}
