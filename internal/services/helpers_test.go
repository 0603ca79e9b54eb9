package services

import (
	"context"
	"time"

	"order-saga/internal/domain"
	"order-saga/internal/infra"
	"order-saga/internal/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TestCustomerID = uint64(7)
	TestOrderID    = uint64(1)
	TestUserName   = "ada"
	TestUserEmail  = "ada@example.com"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateMockOrder returns the order built from the reference cart:
// 2 x product 1 at 10.00 and 1 x product 2 at 5.00.
func CreateMockOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:         TestOrderID,
		CustomerID: TestCustomerID,
		OrderDate:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:     status,
		TotalPrice: price("25.00"),
		Items: []domain.OrderItem{
			{ID: 1, OrderID: TestOrderID, ProductID: 1, Quantity: 2, UnitPrice: price("10.00")},
			{ID: 2, OrderID: TestOrderID, ProductID: 2, Quantity: 1, UnitPrice: price("5.00")},
		},
	}
}

func CreateMockProduct(id uint64, name string, qty int) *infra.ProductInfo {
	return &infra.ProductInfo{
		ID:       id,
		Name:     name,
		Category: "peripherals",
		Quantity: qty,
	}
}

func CreateMockUser() *infra.UserInfo {
	return &infra.UserInfo{UserName: TestUserName, Email: TestUserEmail, Role: "CUSTOMER"}
}

type fixture struct {
	repo     *mocks.MockOrderRepository
	tx       *mocks.Transactor
	cart     *mocks.MockCartGateway
	catalog  *mocks.MockCatalogGateway
	identity *mocks.MockIdentityGateway
	pub      *mocks.MockPublisher
	service  *OrderService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(mocks.MockOrderRepository),
		tx:       new(mocks.Transactor),
		cart:     new(mocks.MockCartGateway),
		catalog:  new(mocks.MockCatalogGateway),
		identity: new(mocks.MockIdentityGateway),
		pub:      new(mocks.MockPublisher),
	}
	f.service = NewOrderService(Dependencies{
		Repo:       f.repo,
		Tx:         f.tx,
		Cart:       f.cart,
		Catalog:    f.catalog,
		Identity:   f.identity,
		Publisher:  f.pub,
		Authorizer: PrincipalAuthorizer{},
		Logger:     zap.NewNop(),
	})
	f.service.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return f
}

func customerCtx() context.Context {
	return WithPrincipal(context.Background(), TestCustomerID)
}
