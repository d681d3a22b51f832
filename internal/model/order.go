package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// transitions lists, for every state, the states it may move to.  Delivered
// and Cancelled have no outgoing edges.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus accepts the four wire values, case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range []OrderStatus{StatusPending, StatusShipped, StatusDelivered, StatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingInfo is the delivery address captured at checkout.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode string `json:"pinCode"`
	PhoneNo string `json:"phoneNo"`
}

// PaymentInfo is the already-authorized payment confirmation.
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderItem is a line item.  Price is the unit price at purchase time and
// is never refreshed from the product.
type OrderItem struct {
	ProductID uint64 `json:"product"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// MaxItemQuantity is the largest quantity order_items.quantity (INT
// UNSIGNED) can hold.
const MaxItemQuantity = math.MaxUint32

// Subtotal returns quantity × unit price.  Callers bound Quantity and Price
// first; the product is not overflow-checked.
func (i OrderItem) Subtotal() int64 { return int64(i.Quantity) * i.Price }

// Order mirrors the `orders` table together with its `order_items` rows.
// All price fields are in the smallest currency unit and fixed at creation.
type Order struct {
	ID            uint64       `json:"id"`
	UserID        uint64       `json:"user"`
	UserName      string       `json:"user_name,omitempty"`
	UserEmail     string       `json:"user_email,omitempty"`
	Items         []OrderItem  `json:"orderItems"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	PaymentInfo   PaymentInfo  `json:"paymentInfo"`
	ItemsPrice    int64        `json:"itemsPrice"`
	TaxPrice      int64        `json:"taxPrice"`
	ShippingPrice int64        `json:"shippingPrice"`
	TotalPrice    int64        `json:"totalPrice"`
	Status        OrderStatus  `json:"orderStatus"`
	PaidAt        time.Time    `json:"paidAt"`
	DeliveredAt   *time.Time   `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
