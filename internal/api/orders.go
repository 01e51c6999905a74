package api

import (
	"context"
	"net/http"
	"net/url"

	"artisan_storefront/internal/models"
)

type CreateOrderRequest struct {
	Items           []models.CartLineItem  `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

type VerifyPaymentRequest struct {
	OrderID string `json:"order_id"`
	models.PaymentAuthorization
}

type ordersResponse struct {
	Orders []models.Order `json:"orders"`
}

// CreateOrder crée la commande côté backend et renvoie la session de paiement
func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (models.PaymentSession, error) {
	var session models.PaymentSession
	err := c.do(ctx, http.MethodPost, "/checkout/create-order", nil, token, req, &session)
	return session, err
}

func (c *Client) VerifyPayment(ctx context.Context, token string, req VerifyPaymentRequest) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPost, "/checkout/verify-payment", nil, token, req, &order)
	return order, err
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]models.Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/orders", nil, token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		resp.Orders = []models.Order{}
	}
	return resp.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, token, nil, &order)
	return order, err
}
