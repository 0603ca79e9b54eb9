package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OutcomePaid is the only payment outcome that can move an order to PAID.
const OutcomePaid = "paid"

type PaymentRequest struct {
	OrderID    uint64          `json:"orderId"`
	CustomerID uint64          `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
}

type PaymentCancel struct {
	OrderID uint64 `json:"orderId"`
}

// PaymentEvent is emitted by the payment subsystem once a payment attempt
// for an order has been decided.
type PaymentEvent struct {
	OrderID    uint64 `json:"orderId"`
	CustomerID uint64 `json:"customerId"`
	Outcome    string `json:"outcome"`
	// Retried is set when this delivery comes back from the retry queue,
	// i.e. an earlier attempt at the same event failed.
	Retried bool `json:"-"`
}

func (e PaymentEvent) Paid() bool {
	return strings.EqualFold(strings.TrimSpace(e.Outcome), OutcomePaid)
}
