package handler

import (
	"github.com/shopspring/decimal"

	appcart "github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/cart"
)

// AddToCartRequest represents the request body for adding a product
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest represents the request body for changing a quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the cart page.
type CartResponse struct {
	appcart.Snapshot
	Authenticated bool `json:"authenticated"`
}

// CheckoutPreview is the order summary shown before placing an order.
type CheckoutPreview struct {
	Items           []cart.Line      `json:"items"`
	ItemCount       int              `json:"itemCount"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	SubtotalDisplay string           `json:"subtotalDisplay"`
	Customer        account.Identity `json:"customer"`
}

// CheckoutResponse confirms a placed order.
type CheckoutResponse struct {
	ItemCount int `json:"itemCount"`
}

// SessionResponse is returned after login and registration.
type SessionResponse struct {
	Identity  account.Identity `json:"identity"`
	ItemCount int              `json:"itemCount"`
}

// NavResponse feeds the navigation bar.
type NavResponse struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"displayName,omitempty"`
	ItemCount     int    `json:"itemCount"`
	IsAdmin       bool   `json:"isAdmin"`
}

// ImageUploadRequest asks for a presigned product image upload
type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// OrderStatusRequest represents the request body for an order status change
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderStatusResponse echoes the applied status
type OrderStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
