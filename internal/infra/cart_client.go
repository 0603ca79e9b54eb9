package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID uint64          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Cart struct {
	CustomerID uint64     `json:"customerId"`
	Items      []CartItem `json:"items"`
}

type CartClient struct {
	rest restClient
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{rest: newRestClient("cart", baseURL, timeout)}
}

func (c *CartClient) FetchCart(ctx context.Context, customerID uint64) (*Cart, error) {
	var cart Cart
	if _, err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/cart/%d", customerID), nil, &cart); err != nil {
		return nil, err
	}

	// A cart attributed to no customer is the cart service's fallback answer.
	if cart.CustomerID == 0 {
		return nil, unavailable("cart", "fallback cart for customer %d", customerID)
	}
	return &cart, nil
}

func (c *CartClient) ClearCart(ctx context.Context, customerID uint64) error {
	raw, err := c.rest.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", customerID), nil, nil)
	if err != nil {
		return err
	}
	if isFallback(string(raw)) {
		return unavailable("cart", "fallback clearing cart of customer %d", customerID)
	}
	return nil
}
