package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type ProductInfo struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type stockUpdate struct {
	Quantity int `json:"quantity"`
}

type CatalogClient struct {
	rest restClient
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{rest: newRestClient("catalog", baseURL, timeout)}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID uint64) (*ProductInfo, error) {
	var p ProductInfo
	if _, err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, &p); err != nil {
		return nil, err
	}
	if isFallback(p.Category) {
		return nil, unavailable("catalog", "fallback product %d", productID)
	}
	return &p, nil
}

func (c *CatalogClient) UpdateStock(ctx context.Context, productID uint64, quantity int) (*ProductInfo, error) {
	var p ProductInfo
	path := fmt.Sprintf("/products/%d/stock", productID)
	if _, err := c.rest.do(ctx, http.MethodPut, path, stockUpdate{Quantity: quantity}, &p); err != nil {
		return nil, err
	}
	if isFallback(p.Category) {
		return nil, unavailable("catalog", "fallback updating stock of product %d", productID)
	}
	return &p, nil
}
