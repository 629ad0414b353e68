package handler

import (
	"github.com/gin-gonic/gin"
)

// CartHandler serves the cart page and its mutations
type CartHandler struct {
	BaseHandler
}

// NewCartHandler creates a new cart handler
func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

// Get godoc
// @Summary      Cart
// @Description  Reconciles the cart with the backend and returns it
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=CartResponse}
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	v.Cart.Fetch(c.Request.Context(), v.Session.Token())
	h.Success(c, CartResponse{
		Snapshot:      v.Cart.Snapshot(),
		Authenticated: v.Session.Authenticated(),
	})
}

// AddItem godoc
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body AddToCartRequest true "Product and quantity"
// @Success      200 {object} dto.Response{data=cart.Snapshot}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}

	res := v.Cart.AddItem(c.Request.Context(), v.Session.Token(), req.ProductID, req.Quantity)
	h.CartResult(c, res, v.Cart.Snapshot())
}

// UpdateItem sets the quantity of a cart line. Zero or less removes it.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}

	res := v.Cart.UpdateQuantity(c.Request.Context(), v.Session.Token(), c.Param("productId"), req.Quantity)
	h.CartResult(c, res, v.Cart.Snapshot())
}

// RemoveItem removes a cart line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}

	res := v.Cart.RemoveItem(c.Request.Context(), v.Session.Token(), c.Param("productId"))
	h.CartResult(c, res, v.Cart.Snapshot())
}
