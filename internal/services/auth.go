package services

import (
	"context"
	"fmt"
)

// Authorizer checks that the caller may act on behalf of a customer.
type Authorizer interface {
	Authorize(ctx context.Context, customerID uint64) error
}

type principalKey struct{}

// WithPrincipal records the authenticated customer for the request.
func WithPrincipal(ctx context.Context, customerID uint64) context.Context {
	return context.WithValue(ctx, principalKey{}, customerID)
}

func PrincipalFrom(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(principalKey{}).(uint64)
	return id, ok && id != 0
}

// PrincipalAuthorizer only lets the authenticated customer act on their own
// orders.
type PrincipalAuthorizer struct{}

func (PrincipalAuthorizer) Authorize(ctx context.Context, customerID uint64) error {
	id, ok := PrincipalFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: missing principal", ErrInvalidRequest)
	}
	if id != customerID {
		return fmt.Errorf("%w: invalid token", ErrInvalidRequest)
	}
	return nil
}
