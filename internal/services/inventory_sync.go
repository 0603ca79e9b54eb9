package services

import (
	"context"
	"fmt"
	"time"

	"order-saga/internal/domain"
	"order-saga/internal/infra"

	"go.uber.org/zap"
)

// restoreTimeout bounds a compensation pass, which runs even after the
// caller's context is cancelled.
const restoreTimeout = 10 * time.Second

// InventorySync applies the stock decrements of a paid order to the catalog.
type InventorySync struct {
	catalog infra.CatalogGateway
	log     *zap.Logger
}

func NewInventorySync(catalog infra.CatalogGateway, log *zap.Logger) *InventorySync {
	return &InventorySync{catalog: catalog, log: log}
}

// Decrement lowers the catalog quantity of every line item, in order. The
// first failure stops the pass and puts back what was already taken, so an
// error leaves no partial decrement behind. On success the returned func
// undoes the whole pass.
//
// Restores are detached from ctx cancellation: stock taken by a pass that
// was interrupted mid-way must still be put back.
func (s *InventorySync) Decrement(ctx context.Context, order *domain.Order) (func(context.Context), error) {
	applied := make([]domain.OrderItem, 0, len(order.Items))
	undo := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
		for i := len(applied) - 1; i >= 0; i-- {
			s.restore(ctx, order.ID, applied[i])
		}
	}

	for _, item := range order.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			undo(ctx)
			return nil, unavailable(fmt.Sprintf("fetch product %d", item.ProductID), err)
		}

		quantity := product.Quantity - item.Quantity
		if _, err := s.catalog.UpdateStock(ctx, item.ProductID, quantity); err != nil {
			undo(ctx)
			return nil, unavailable(fmt.Sprintf("update stock of product %d", item.ProductID), err)
		}
		applied = append(applied, item)

		s.log.Info("stock decremented",
			zap.Uint64("order_id", order.ID),
			zap.Uint64("product_id", item.ProductID),
			zap.Int("quantity", quantity))
	}

	return undo, nil
}

// restore adds item's quantity back on top of the current catalog stock.
func (s *InventorySync) restore(ctx context.Context, orderID uint64, item domain.OrderItem) {
	fields := []zap.Field{zap.Uint64("order_id", orderID), zap.Uint64("product_id", item.ProductID), zap.Int("quantity", item.Quantity)}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		s.log.Error("stock restore failed, manual correction needed", append(fields, zap.Error(err))...)
		return
	}
	if _, err := s.catalog.UpdateStock(ctx, item.ProductID, product.Quantity+item.Quantity); err != nil {
		s.log.Error("stock restore failed, manual correction needed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Warn("stock restored", fields...)
}
