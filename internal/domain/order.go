package domain

import "time"

// Payment statuses.
const (
	PaymentPending  = "P"
	PaymentComplete = "C"
	PaymentFailed   = "F"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentComplete, PaymentFailed:
		return true
	}
	return false
}

// Order is a placed order. Items and Customer are filled by reads that load relations.
type Order struct {
	ID            int64       `json:"id"`
	Reference     string      `json:"reference"`
	PlacedAt      time.Time   `json:"placed_at"`
	PaymentStatus string      `json:"payment_status"`
	CustomerID    int64       `json:"customer_id"`
	Customer      *Customer   `json:"customer,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
}

// Total sums the order's line items.
func (o *Order) Total() Money {
	var total Money
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

// OrderItem is one line of an order. UnitPrice is snapshotted when the order is placed.
type OrderItem struct {
	ID        int64    `json:"id"`
	OrderID   int64    `json:"order_id"`
	ProductID int64    `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity"`
	UnitPrice Money    `json:"unit_price"`
}

// LineTotal is quantity times the snapshotted unit price.
func (i OrderItem) LineTotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}

// LineRequest asks for quantity of a product when placing an order.
type LineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
