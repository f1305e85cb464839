package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// Order is the owning record a refund settles against. The engine only ever
// mutates its status, and only through reconciliation.
type Order struct {
	ID             string // UUID
	OrganizationID string // UUID
	Amount         int64  // minor units; CLP carries none
	Currency       string // ISO 4217
	Status         OrderStatus
	PaymentID      string // UUID -> Payment that settled the order
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Refundable reports whether new refund requests may be opened against the order.
func (o *Order) Refundable() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusRefunded
}
