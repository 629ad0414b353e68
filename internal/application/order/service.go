// Package order handles checkout and the shopper's order history.
package order

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/cart"
	"github.com/minimart/storefront/internal/domain/order"
	"github.com/minimart/storefront/internal/domain/shared"
)

// Checkout messages.
const (
	MsgEmptyCart       = "Your cart is empty"
	MsgMissingAddress  = "Please provide a shipping address"
	MsgOrderPlaced     = "Order placed successfully!"
	MsgCheckoutFailed  = "Failed to place order. Please try again."
	MsgOrderCancelled  = "Order deleted successfully!"
	MsgOrderCancelFail = "Failed to delete order. Please try again."
)

// Backend is the store backend's order API.
type Backend interface {
	ListOrders(ctx context.Context, token string) ([]order.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) error
	Checkout(ctx context.Context, token string) (string, error)
	SimpleCheckout(ctx context.Context, token, shippingAddress string) (string, error)
}

// CheckoutRequest is the checkout form.
//
// Express places the order without a shipping address through the plain
// order endpoint; otherwise the address is required.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	Express         bool   `json:"express"`
}

// CheckoutResult is a placed order confirmation.
type CheckoutResult struct {
	Message string `json:"message"`
}

// Service handles orders
type Service struct {
	backend Backend
	logger  *zap.Logger
}

// NewService creates a new order Service
func NewService(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger}
}

// List returns the shopper's orders. Items whose product no longer exists
// are dropped.
func (s *Service) List(ctx context.Context, token string) ([]order.Order, error) {
	if token == "" {
		return nil, shared.ErrLoginRequired
	}
	orders, err := s.backend.ListOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for i := range orders {
		orders[i].Items = orders[i].AvailableItems()
	}
	return orders, nil
}

// Cancel deletes one of the shopper's orders.
func (s *Service) Cancel(ctx context.Context, token, orderID string) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	if strings.TrimSpace(orderID) == "" {
		return shared.ValidationError("Invalid order")
	}
	if err := s.backend.CancelOrder(ctx, token, orderID); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	s.logger.Info("Order cancelled", zap.String("order_id", orderID))
	return nil
}

// Checkout places an order for the contents of current. The cart snapshot is
// only used for the empty-cart check; the backend checks out its own copy.
func (s *Service) Checkout(ctx context.Context, token string, current cart.State, req CheckoutRequest) (CheckoutResult, error) {
	if token == "" {
		return CheckoutResult{}, shared.ErrLoginRequired
	}
	if current.IsEmpty() {
		return CheckoutResult{}, shared.ValidationError(MsgEmptyCart)
	}

	var (
		msg string
		err error
	)
	if req.Express {
		msg, err = s.backend.Checkout(ctx, token)
	} else {
		address := strings.TrimSpace(req.ShippingAddress)
		if address == "" {
			return CheckoutResult{}, shared.ValidationError(MsgMissingAddress)
		}
		msg, err = s.backend.SimpleCheckout(ctx, token, address)
	}
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("checkout: %w", err)
	}

	if msg == "" {
		msg = MsgOrderPlaced
	}
	s.logger.Info("Order placed",
		zap.Int("items", current.ItemCount()),
		zap.String("subtotal", current.Subtotal().StringFixed(2)),
		zap.Bool("express", req.Express),
	)
	return CheckoutResult{Message: msg}, nil
}
