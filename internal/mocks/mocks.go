package mocks

import (
	"context"

	"order-saga/internal/domain"
	"order-saga/internal/infra"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint64, from, to domain.OrderStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// Transactor runs the callback inline and counts the transactions opened.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

type MockCartGateway struct {
	mock.Mock
}

func (m *MockCartGateway) FetchCart(ctx context.Context, customerID uint64) (*infra.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.Cart), args.Error(1)
}

func (m *MockCartGateway) ClearCart(ctx context.Context, customerID uint64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type MockCatalogGateway struct {
	mock.Mock
}

func (m *MockCatalogGateway) GetProduct(ctx context.Context, productID uint64) (*infra.ProductInfo, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ProductInfo), args.Error(1)
}

func (m *MockCatalogGateway) UpdateStock(ctx context.Context, productID uint64, quantity int) (*infra.ProductInfo, error) {
	args := m.Called(ctx, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ProductInfo), args.Error(1)
}

type MockIdentityGateway struct {
	mock.Mock
}

func (m *MockIdentityGateway) GetUser(ctx context.Context, customerID uint64) (*infra.UserInfo, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.UserInfo), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message any) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockPublisher) PublishRaw(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, routingKey, msg)
	return args.Error(0)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, customerID uint64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, customerID uint64) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

func (m *MockOrderService) TrackOrder(ctx context.Context, orderID uint64) (*domain.OrderView, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderView), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID uint64) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

type MockPaymentConfirmer struct {
	mock.Mock
}

func (m *MockPaymentConfirmer) ConfirmPayment(ctx context.Context, evt domain.PaymentEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
