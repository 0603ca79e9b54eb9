package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty, please add items in your cart")
	ErrCollaboratorUnavailable = errors.New("service is down, please try after sometime")
	ErrInvalidTransition       = errors.New("invalid order status transition")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCollaboratorUnavailable, err)
}

func orderNotFound(id uint64) error {
	return fmt.Errorf("%w: invalid order id %d", ErrOrderNotFound, id)
}

// IsRetryable reports whether a failed payment confirmation may succeed
// when delivered again. Errors caused by the request itself never will.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	for _, permanent := range []error{ErrOrderNotFound, ErrInvalidRequest, ErrEmptyCart, ErrInvalidTransition} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}
