package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order header statuses.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

// Order line fulfillment statuses, tracked independently of payment.
const (
	LineStatusPending    = "pending"
	LineStatusProcessing = "processing"
	LineStatusShipped    = "shipped"
	LineStatusDelivered  = "delivered"
	LineStatusCancelled  = "cancelled"
)

// Order is the durable record of a committed purchase. TotalAmount is
// authoritative: it is written at commit time as the rounded sum of rounded
// line totals and never recomputed from lines at read time.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	IsPaid      bool            `json:"is_paid"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []OrderLine     `json:"lines,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderLine is one product purchase within an order. Quantity and
// PriceAtPurchase are fixed at creation; PriceAtPurchase is decoupled from
// any later edit to the product's current price. Only Status mutates.
type OrderLine struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Status          string          `json:"status"`
}

// LineTotal returns the rounded total for this line.
func (l *OrderLine) LineTotal() decimal.Decimal {
	return LineTotal(l.PriceAtPurchase, l.Quantity)
}

// ValidLineStatuses returns the allowed fulfillment statuses.
func ValidLineStatuses() []string {
	return []string{
		LineStatusPending,
		LineStatusProcessing,
		LineStatusShipped,
		LineStatusDelivered,
		LineStatusCancelled,
	}
}

// IsValidLineStatus checks whether status is one of the allowed values.
func IsValidLineStatus(status string) bool {
	for _, s := range ValidLineStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
