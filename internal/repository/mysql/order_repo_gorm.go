package mysql

import (
	"context"
	"errors"
	"fmt"

	"order-saga/internal/domain"
	"order-saga/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

type orderRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderRepository(db *gorm.DB, log *zap.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: log}
}

// conn returns the transaction bound to ctx, if any.
func (r *orderRepo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	result := r.conn(ctx).Create(order)
	if result.Error != nil {
		r.log.Error("order insert failed", zap.Error(result.Error))
		return fmt.Errorf("create order: %w", result.Error)
	}

	if order.ID == 0 {
		r.log.Warn("order saved without id", zap.Int64("rows_affected", result.RowsAffected))
		return errors.New("failed to assign order ID")
	}

	r.log.Info("order saved", zap.Uint64("order_id", order.ID), zap.Int("items", len(order.Items)))
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.find(r.conn(ctx), id)
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	return r.find(r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepo) find(db *gorm.DB, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("order lookup failed", zap.Uint64("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint64, from, to domain.OrderStatus) error {
	result := r.conn(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		r.log.Error("order status update failed", zap.Uint64("order_id", id), zap.Error(result.Error))
		return fmt.Errorf("update order %d status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %d %s->%s: %w", id, from, to, repository.ErrStatusConflict)
	}
	return nil
}

type transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) repository.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
