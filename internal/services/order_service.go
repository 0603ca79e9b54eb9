package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-saga/internal/domain"
	"order-saga/internal/infra"
	rabbit "order-saga/internal/infra/rabbitmq"
	"order-saga/internal/repository"

	"go.uber.org/zap"
)

const (
	RoutingPaymentRequest = "payment.request"
	RoutingPaymentCancel  = "payment.cancel"
)

type Dependencies struct {
	Repo       repository.OrderRepository
	Tx         repository.Transactor
	Cart       infra.CartGateway
	Catalog    infra.CatalogGateway
	Identity   infra.IdentityGateway
	Publisher  rabbit.PublisherInterface
	Authorizer Authorizer
	Logger     *zap.Logger
}

// OrderService owns the order lifecycle. It is the only component that
// changes an order's status.
type OrderService struct {
	repo      repository.OrderRepository
	tx        repository.Transactor
	cart      infra.CartGateway
	catalog   infra.CatalogGateway
	identity  infra.IdentityGateway
	publisher rabbit.PublisherInterface
	auth      Authorizer
	inventory *InventorySync
	notifier  *NotificationEmitter
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(d Dependencies) *OrderService {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		repo:      d.Repo,
		tx:        d.Tx,
		cart:      d.Cart,
		catalog:   d.Catalog,
		identity:  d.Identity,
		publisher: d.Publisher,
		auth:      d.Authorizer,
		inventory: NewInventorySync(d.Catalog, log),
		notifier:  NewNotificationEmitter(d.Identity, d.Publisher, log),
		log:       log,
		now:       time.Now,
	}
}

// PlaceOrder turns the customer's cart into a PENDING order and asks the
// payment subsystem to collect it.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uint64) (string, error) {
	if err := s.auth.Authorize(ctx, customerID); err != nil {
		return "", err
	}

	cart, err := s.cart.FetchCart(ctx, customerID)
	if err != nil {
		return "", unavailable("fetch cart", err)
	}
	if len(cart.Items) == 0 {
		return "", ErrEmptyCart
	}

	lines := make([]domain.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	order, err := domain.NewOrder(customerID, lines, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, order)
	}); err != nil {
		return "", err
	}
	log := s.log.With(zap.Uint64("order_id", order.ID), zap.Uint64("customer_id", customerID))
	log.Info("order placed", zap.String("total", order.TotalPrice.StringFixed(2)))

	// The order stays committed when the clear fails; it can be tracked or
	// cancelled and the cart cleared again by an operator.
	if err := s.cart.ClearCart(ctx, customerID); err != nil {
		log.Warn("cart not cleared after order placement", zap.Error(err))
		return "", unavailable("clear cart", err)
	}

	req := domain.PaymentRequest{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.TotalPrice,
	}
	if err := s.publisher.Publish(ctx, RoutingPaymentRequest, req); err != nil {
		log.Error("payment request not published", zap.Error(err))
		return "", fmt.Errorf("publish payment request for order %d: %w", order.ID, err)
	}

	return fmt.Sprintf("Please complete the payment for Order ID %d", order.ID), nil
}

func (s *OrderService) TrackOrder(ctx context.Context, orderID uint64) (*domain.OrderView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound(orderID)
	}

	if err := s.auth.Authorize(ctx, order.CustomerID); err != nil {
		return nil, err
	}

	user, err := s.identity.GetUser(ctx, order.CustomerID)
	if err != nil {
		return nil, unavailable("fetch customer", err)
	}

	items := make([]domain.OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, unavailable(fmt.Sprintf("fetch product %d", item.ProductID), err)
		}
		items = append(items, domain.OrderItemView{
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		})
	}

	return &domain.OrderView{
		OrderID:      order.ID,
		Status:       order.Status,
		OrderDate:    order.OrderDate,
		TotalPrice:   order.TotalPrice,
		CustomerName: user.UserName,
		Items:        items,
	}, nil
}

// CancelOrder cancels a PENDING or PAID order, tells the payment subsystem
// to void it and notifies the customer.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint64) (string, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return orderNotFound(orderID)
		}
		if err := s.auth.Authorize(ctx, o.CustomerID); err != nil {
			return err
		}
		if !domain.CanTransition(o.Status, domain.StatusCancelled) {
			return fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, orderID, o.Status)
		}
		if err := s.repo.UpdateStatus(ctx, o.ID, o.Status, domain.StatusCancelled); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
			}
			return err
		}
		o.Status = domain.StatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info("order cancelled", zap.Uint64("order_id", order.ID))

	if err := s.publisher.Publish(ctx, RoutingPaymentCancel, domain.PaymentCancel{OrderID: order.ID}); err != nil {
		return "", fmt.Errorf("publish payment cancel for order %d: %w", order.ID, err)
	}

	if err := s.notifier.Notify(ctx, order); err != nil {
		return "", err
	}

	return fmt.Sprintf("Order canceled for the order id : %d", order.ID), nil
}

// ConfirmPayment applies a payment outcome to its order. It is safe to call
// more than once with the same event: the order row is locked for the
// duration of the decision and a PAID order ignores further "paid" events,
// so stock is decremented once per order.
//
// A status written here is not rolled back when the notification that
// follows fails. The retried delivery of that event sends it again.
func (s *OrderService) ConfirmPayment(ctx context.Context, evt domain.PaymentEvent) error {
	log := s.log.With(zap.Uint64("order_id", evt.OrderID), zap.String("outcome", evt.Outcome))

	var (
		order  *domain.Order
		notify bool
		undo   func(context.Context)
	)
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.FindByIDForUpdate(txCtx, evt.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return orderNotFound(evt.OrderID)
		}
		order = o

		if !evt.Paid() || o.Status.Terminal() {
			// Nothing to decide; resend the current state downstream.
			notify = true
			return nil
		}
		if o.Status == domain.StatusPaid {
			// A retried copy may follow an attempt that committed PAID but
			// failed to notify; the notification is sent again, stock is not.
			if evt.Retried {
				log.Info("retried payment confirmation on paid order, resending notification")
				notify = true
				return nil
			}
			log.Info("duplicate payment confirmation ignored")
			return nil
		}

		next := domain.StatusFailed
		if evt.CustomerID == o.CustomerID {
			next = domain.StatusPaid
		}
		if !domain.CanTransition(o.Status, next) {
			return fmt.Errorf("%w: order %d %s->%s", ErrInvalidTransition, o.ID, o.Status, next)
		}

		if next == domain.StatusPaid {
			undo, err = s.inventory.Decrement(ctx, o)
			if err != nil {
				return err
			}
		}
		if err := s.repo.UpdateStatus(txCtx, o.ID, o.Status, next); err != nil {
			return err
		}
		o.Status = next
		notify = true
		return nil
	})
	if err != nil {
		if undo != nil {
			log.Warn("payment confirmation not persisted, restoring stock", zap.Error(err))
			undo(ctx)
		}
		return err
	}
	log.Info("payment event applied", zap.String("status", string(order.Status)))

	if !notify {
		return nil
	}
	return s.notifier.Notify(ctx, order)
}
