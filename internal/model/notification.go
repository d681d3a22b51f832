package model

import "time"

// Notification is the persisted copy of a bus event kept for the admin
// dashboard.  It is a projection: losing rows here loses no order state.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	OrderID   uint64    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}
