package backend

import (
	"context"
	"net/http"

	orderapp "github.com/minimart/storefront/internal/application/order"
	"github.com/minimart/storefront/internal/domain/order"
)

var _ orderapp.Backend = (*OrderAPI)(nil)

// OrderAPI implements the shopper order port.
type OrderAPI struct {
	client *Client
}

// NewOrderAPI creates an OrderAPI
func NewOrderAPI(client *Client) *OrderAPI {
	return &OrderAPI{client: client}
}

// ListOrders returns the token owner's orders.
func (a *OrderAPI) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	var out []orderDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/orders", Token: token}, &out); err != nil {
		return nil, err
	}
	return toOrders(out), nil
}

// CancelOrder deletes order orderID.
func (a *OrderAPI) CancelOrder(ctx context.Context, token, orderID string) error {
	return a.client.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/api/orders/" + escape(orderID),
		Route:  "/api/orders/:id",
		Token:  token,
	}, nil)
}

// Checkout places an order for the backend's copy of the cart.
func (a *OrderAPI) Checkout(ctx context.Context, token string) (string, error) {
	var out messageDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/api/orders/checkout", Token: token}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// SimpleCheckout places an order shipped to shippingAddress.
func (a *OrderAPI) SimpleCheckout(ctx context.Context, token, shippingAddress string) (string, error) {
	var out messageDTO
	req := Request{
		Method: http.MethodPost,
		Path:   "/api/payment/simple-checkout",
		Token:  token,
		Body:   checkoutRequest{ShippingAddress: shippingAddress},
	}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
