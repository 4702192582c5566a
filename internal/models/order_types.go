package models

import (
	"time"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderDelivered = "delivered"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	return s == OrderPending || s == OrderDelivered
}

// DateLayout is the calendar-date format used for Order.Date.
const DateLayout = "2006-01-02"

// OrderItem is one line of an order. It snapshots the product name, unit
// and price at the time the order was taken, so later product edits do not
// rewrite order history.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Order is the model for the 'daily_orders' table. Items are stored as a
// JSON column. CustomerName is denormalized from the customer at creation.
// TotalAmount is always recomputed from the items on the server; it is
// never trusted from the client.
type Order struct {
	ID           int64       `json:"id" db:"id"`
	OwnerID      int64       `json:"ownerId" db:"owner_id"`
	CustomerID   int64       `json:"customerId" db:"customer_id"`
	CustomerName string      `json:"customerName" db:"customer_name"`
	Date         string      `json:"date" db:"order_date"`
	Items        []OrderItem `json:"items" db:"items"`
	TotalAmount  float64     `json:"totalAmount" db:"total_amount"`
	AmountPaid   float64     `json:"amountPaid" db:"amount_paid"`
	Status       string      `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
}
