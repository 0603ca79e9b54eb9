package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	now := time.Now()
	order, err := NewOrder(7, []LineItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}, now)

	require.NoError(t, err)
	assert.Equal(t, uint64(7), order.CustomerID)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, now, order.OrderDate)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("25.00")), "total %s", order.TotalPrice)
	require.Len(t, order.Items, 2)
	assert.Equal(t, uint64(1), order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
}

func TestNewOrder_KeepsCurrencyPrecision(t *testing.T) {
	order, err := NewOrder(1, []LineItem{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("0.20")},
	}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "0.50", order.TotalPrice.StringFixed(2))
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder(1, nil, time.Now())
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = NewOrder(1, []LineItem{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}, time.Now())
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusFailed, false},
		{StatusPaid, StatusPaid, false},
		{StatusFailed, StatusCancelled, false},
		{StatusFailed, StatusPaid, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestPaymentEvent_Paid(t *testing.T) {
	assert.True(t, PaymentEvent{Outcome: "paid"}.Paid())
	assert.True(t, PaymentEvent{Outcome: "PAID"}.Paid())
	assert.False(t, PaymentEvent{Outcome: "FAILED"}.Paid())
	assert.False(t, PaymentEvent{}.Paid())
}
