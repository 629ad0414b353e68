package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/minimart/storefront/internal/application/order"
	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/shared"
)

// OrderHandler serves checkout and the order history
type OrderHandler struct {
	BaseHandler
	orders *apporder.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *apporder.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Preview godoc
// @Summary      Checkout preview
// @Description  Reconciled cart contents and subtotal before placing an order
// @Tags         checkout
// @Produce      json
// @Success      200 {object} dto.Response{data=CheckoutPreview}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [get]
func (h *OrderHandler) Preview(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()
	if token == "" {
		h.LoginRequired(c, shared.ErrLoginRequired.Message)
		return
	}

	v.Cart.Fetch(c.Request.Context(), token)
	if !v.Session.Authenticated() {
		h.LoginRequired(c, shared.ErrLoginRequired.Message)
		return
	}

	state := v.Cart.State()
	h.Success(c, CheckoutPreview{
		Items:           state.Items(),
		ItemCount:       state.ItemCount(),
		Subtotal:        state.Subtotal(),
		SubtotalDisplay: catalog.FormatPrice(state.Subtotal()),
		Customer:        v.Session.Identity(),
	})
}

// Checkout godoc
// @Summary      Place order
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body apporder.CheckoutRequest true "Shipping details"
// @Success      200 {object} dto.Response{data=CheckoutResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req apporder.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}
	ctx := c.Request.Context()
	token := v.Session.Token()

	// The empty-cart check runs against the backend's current cart.
	v.Cart.Fetch(ctx, token)
	result, err := h.orders.Checkout(ctx, v.Session.Token(), v.Cart.State(), req)
	if err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}

	h.SuccessWithMessage(c, result.Message, CheckoutResponse{
		ItemCount: v.Cart.Fetch(ctx, token),
	})
}

// List returns the shopper's orders
func (h *OrderHandler) List(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()

	orders, err := h.orders.List(c.Request.Context(), token)
	if err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}
	h.Success(c, orders)
}

// Cancel deletes one of the shopper's orders
func (h *OrderHandler) Cancel(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()

	if err := h.orders.Cancel(c.Request.Context(), token, c.Param("id")); err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}
	h.SuccessWithMessage(c, apporder.MsgOrderCancelled, nil)
}
