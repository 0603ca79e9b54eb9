package services

import (
	"context"
	"fmt"

	"order-saga/internal/domain"
	"order-saga/internal/infra"
	rabbit "order-saga/internal/infra/rabbitmq"

	"go.uber.org/zap"
)

const RoutingNotification = "notification.send"

type NotificationEmitter struct {
	identity  infra.IdentityGateway
	publisher rabbit.PublisherInterface
	log       *zap.Logger
}

func NewNotificationEmitter(identity infra.IdentityGateway, publisher rabbit.PublisherInterface, log *zap.Logger) *NotificationEmitter {
	return &NotificationEmitter{identity: identity, publisher: publisher, log: log}
}

func BuildNotification(order *domain.Order, user *infra.UserInfo) domain.Notification {
	return domain.Notification{
		OrderID:   order.ID,
		Status:    order.Status,
		Amount:    order.TotalPrice,
		UserName:  user.UserName,
		UserEmail: user.Email,
	}
}

// Notify resolves the order's owner and publishes a notification carrying
// the order's current status. Delivery is fire-and-forget.
func (e *NotificationEmitter) Notify(ctx context.Context, order *domain.Order) error {
	user, err := e.identity.GetUser(ctx, order.CustomerID)
	if err != nil {
		return unavailable("fetch customer", err)
	}

	n := BuildNotification(order, user)
	if err := e.publisher.Publish(ctx, RoutingNotification, n); err != nil {
		return fmt.Errorf("publish notification for order %d: %w", order.ID, err)
	}

	e.log.Info("notification sent", zap.Uint64("order_id", order.ID), zap.String("status", string(order.Status)))
	return nil
}
