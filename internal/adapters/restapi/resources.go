package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

var _ ports.Backend = (*Client)(nil)

const (
	productsPath     = "/products"
	inventoryPath    = "/inventory"
	transactionsPath = "/transactions"
	activitiesPath   = "/activities"
)

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

func (c *Client) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return list[*domain.Product](ctx, c, productsPath)
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, itemPath(productsPath, id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPost, productsPath, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPut, itemPath(productsPath, p.ID), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(productsPath, id), nil, nil)
}

func (c *Client) ListInventory(ctx context.Context) ([]*domain.InventoryRecord, error) {
	return list[*domain.InventoryRecord](ctx, c, inventoryPath)
}

func (c *Client) CreateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	var out domain.InventoryRecord
	if err := c.do(ctx, http.MethodPost, inventoryPath, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error) {
	var out domain.InventoryRecord
	if err := c.do(ctx, http.MethodPut, itemPath(inventoryPath, r.ID), r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInventory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(inventoryPath, id), nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	return list[*domain.Transaction](ctx, c, transactionsPath)
}

func (c *Client) CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := c.do(ctx, http.MethodPost, transactionsPath, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(transactionsPath, id), nil, nil)
}

func (c *Client) ListActivities(ctx context.Context) ([]*domain.Activity, error) {
	return list[*domain.Activity](ctx, c, activitiesPath)
}

func (c *Client) RecordActivity(ctx context.Context, a *domain.Activity) error {
	return c.do(ctx, http.MethodPost, activitiesPath, a, nil)
}
