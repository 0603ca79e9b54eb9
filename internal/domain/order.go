package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusFailed    OrderStatus = "FAILED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var ErrNoItems = errors.New("order must contain at least one item")

// transitions lists every status change the service may perform.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:    {StatusCancelled},
}

// CanTransition reports whether an order in status from may move to status to.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Order struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID uint64          `json:"customerId" gorm:"not null;index"`
	OrderDate  time.Time       `json:"orderDate" gorm:"not null"`
	Status     OrderStatus     `json:"status" gorm:"type:enum('PENDING','PAID','FAILED','CANCELLED');default:'PENDING';not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	Items      []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID        uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `json:"-" gorm:"not null;index"`
	ProductID uint64          `json:"productId" gorm:"not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
}

// LineItem is a priced cart line an order is built from.
type LineItem struct {
	ProductID uint64
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewOrder snapshots the given lines into a PENDING order. The total is
// computed here once and never recomputed.
func NewOrder(customerID uint64, lines []LineItem, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoItems
	}

	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, errors.New("item quantity must be positive")
		}
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return &Order{
		CustomerID: customerID,
		OrderDate:  now,
		Status:     StatusPending,
		TotalPrice: total,
		Items:      items,
	}, nil
}
