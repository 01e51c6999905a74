package api

import (
	"context"
	"net/http"
	"net/url"

	"artisan_storefront/internal/models"
)

// ProductInput est le corps de création d'un produit dans le back-office
type ProductInput struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description"`
	SKU         string                  `json:"sku" binding:"required"`
	PriceCents  int64                   `json:"price_cents" binding:"gte=0"`
	Images      []string                `json:"images"`
	Category    string                  `json:"category" binding:"required"`
	Stock       int                     `json:"stock" binding:"gte=0"`
	Variants    []models.ProductVariant `json:"variants,omitempty"`
	Metadata    models.Metadata         `json:"metadata,omitempty"`
	IsActive    bool                    `json:"is_active"`
}

type statusUpdate struct {
	Status models.OrderStatus `json:"status"`
}

func (c *Client) AdminListOrders(ctx context.Context, token string, status models.OrderStatus) ([]models.Order, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {string(status)}}
	}

	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/admin/orders", query, token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		resp.Orders = []models.Order{}
	}
	return resp.Orders, nil
}

func (c *Client) AdminGetOrder(ctx context.Context, token, id string) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodGet, "/admin/orders/"+url.PathEscape(id), nil, token, nil, &order)
	return order, err
}

func (c *Client) AdminUpdateOrderStatus(ctx context.Context, token, id string, status models.OrderStatus) (models.Order, error) {
	var order models.Order
	path := "/admin/orders/" + url.PathEscape(id) + "/status"
	err := c.do(ctx, http.MethodPut, path, nil, token, statusUpdate{Status: status}, &order)
	return order, err
}

func (c *Client) AdminListProducts(ctx context.Context, token string, filters models.ProductFilters) (models.ProductPage, error) {
	var page models.ProductPage
	err := c.do(ctx, http.MethodGet, "/admin/products", productQuery(filters), token, nil, &page)
	return page, err
}

func (c *Client) AdminCreateProduct(ctx context.Context, token string, input ProductInput) (models.Product, error) {
	var product models.Product
	err := c.do(ctx, http.MethodPost, "/admin/products", nil, token, input, &product)
	return product, err
}

func (c *Client) AdminDeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), nil, token, nil, nil)
}
