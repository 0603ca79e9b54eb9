package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderView is the read-only tracking projection of an order. Prices are the
// ones frozen on the order; product names are the catalog's current ones.
type OrderView struct {
	OrderID      uint64          `json:"orderId"`
	Status       OrderStatus     `json:"status"`
	OrderDate    time.Time       `json:"orderDate"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	CustomerName string          `json:"customerName"`
	Items        []OrderItemView `json:"items"`
}

type OrderItemView struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
