package repository

import (
	"context"
	"errors"

	"order-saga/internal/domain"
)

// ErrStatusConflict is returned when a status compare-and-swap finds the
// order in a different status than expected.
var ErrStatusConflict = errors.New("order status changed concurrently")

// OrderRepository finders return (nil, nil) when no order matches.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	// FindByIDForUpdate locks the order row until the surrounding
	// transaction ends. Outside a transaction it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uint64, from, to domain.OrderStatus) error
}

// Transactor runs fn in a single database transaction. Repository calls
// made with the ctx handed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
