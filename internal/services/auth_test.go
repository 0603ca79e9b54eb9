package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"order-saga/internal/domain"
	"order-saga/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalAuthorizer(t *testing.T) {
	var auth PrincipalAuthorizer

	assert.NoError(t, auth.Authorize(WithPrincipal(context.Background(), 7), 7))
	assert.ErrorIs(t, auth.Authorize(WithPrincipal(context.Background(), 8), 7), ErrInvalidRequest)
	assert.ErrorIs(t, auth.Authorize(WithPrincipal(context.Background(), 0), 7), ErrInvalidRequest)
	assert.ErrorIs(t, auth.Authorize(context.Background(), 7), ErrInvalidRequest)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"collaborator down", unavailable("fetch cart", errUnavailable), true},
		{"database", errors.New("connection reset"), true},
		{"status conflict", fmt.Errorf("wrap: %w", repository.ErrStatusConflict), true},
		{"unknown order", orderNotFound(3), false},
		{"bad request", ErrInvalidRequest, false},
		{"empty cart", ErrEmptyCart, false},
		{"transition", fmt.Errorf("%w: order 1 is FAILED", ErrInvalidTransition), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestBuildNotification(t *testing.T) {
	order := CreateMockOrder(domain.StatusPaid)

	n := BuildNotification(order, CreateMockUser())

	assert.Equal(t, TestOrderID, n.OrderID)
	assert.Equal(t, domain.StatusPaid, n.Status)
	assert.True(t, n.Amount.Equal(order.TotalPrice))
	assert.Equal(t, TestUserName, n.UserName)
	assert.Equal(t, TestUserEmail, n.UserEmail)
}
