package infra

import "context"

type CartGateway interface {
	FetchCart(ctx context.Context, customerID uint64) (*Cart, error)
	ClearCart(ctx context.Context, customerID uint64) error
}

type CatalogGateway interface {
	GetProduct(ctx context.Context, productID uint64) (*ProductInfo, error)
	UpdateStock(ctx context.Context, productID uint64, quantity int) (*ProductInfo, error)
}

type IdentityGateway interface {
	GetUser(ctx context.Context, customerID uint64) (*UserInfo, error)
}

var (
	_ CartGateway     = (*CartClient)(nil)
	_ CatalogGateway  = (*CatalogClient)(nil)
	_ IdentityGateway = (*IdentityClient)(nil)
)
