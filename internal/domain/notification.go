package domain

import "github.com/shopspring/decimal"

// Notification summarizes an order outcome for the notification sender.
// It is assembled at dispatch time and never stored.
type Notification struct {
	OrderID   uint64          `json:"orderId"`
	Status    OrderStatus     `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	UserName  string          `json:"userName"`
	UserEmail string          `json:"userEmail"`
}
