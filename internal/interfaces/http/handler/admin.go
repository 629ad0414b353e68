package handler

import (
	"github.com/gin-gonic/gin"

	appadmin "github.com/minimart/storefront/internal/application/admin"
	"github.com/minimart/storefront/internal/domain/account"
)

// AdminHandler serves the admin panel. It works with the visitor's admin
// session, which is separate from the shopper session.
type AdminHandler struct {
	BaseHandler
	admin *appadmin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *appadmin.Service) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// withToken runs fn with the admin token and maps its error.
func (h *AdminHandler) withToken(c *gin.Context, fn func(token string) error) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Admin.Token()
	if err := fn(token); err != nil {
		h.HandleSessionError(c, v.Admin, token, err)
	}
}

// Login godoc
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body account.Credentials true "Admin credentials"
// @Success      200 {object} dto.Response{data=account.Identity}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req account.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}

	identity, err := h.admin.Login(c.Request.Context(), v.Admin, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identity)
}

// Register creates an administrator using the shared secret key
func (h *AdminHandler) Register(c *gin.Context) {
	var req account.AdminRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}

	identity, err := h.admin.Register(c.Request.Context(), v.Admin, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Admin account created", identity)
}

// Logout ends the admin session. The shopper session and cart are kept.
func (h *AdminHandler) Logout(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	h.admin.Logout(c.Request.Context(), v.Admin)
	h.SuccessWithMessage(c, "Logged out", nil)
}

// Dashboard godoc
// @Summary      Admin dashboard
// @Description  Store statistics; degraded to zeros when the backend fails
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=appadmin.Dashboard}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	h.withToken(c, func(token string) error {
		d, err := h.admin.Dashboard(c.Request.Context(), token)
		if err != nil {
			return err
		}
		h.Success(c, d)
		return nil
	})
}

// ListProducts lists every product
func (h *AdminHandler) ListProducts(c *gin.Context) {
	h.withToken(c, func(token string) error {
		products, err := h.admin.Products(c.Request.Context(), token)
		if err != nil {
			return err
		}
		h.Success(c, products)
		return nil
	})
}

// Categories counts products per category
func (h *AdminHandler) Categories(c *gin.Context) {
	h.withToken(c, func(token string) error {
		stats, err := h.admin.Categories(c.Request.Context(), token)
		if err != nil {
			return err
		}
		h.Success(c, stats)
		return nil
	})
}

// CreateProduct godoc
// @Summary      Create product
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body appadmin.ProductInput true "Product"
// @Success      201 {object} dto.Response{data=catalog.Product}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products [post]
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req appadmin.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	h.withToken(c, func(token string) error {
		product, err := h.admin.CreateProduct(c.Request.Context(), token, req)
		if err != nil {
			return err
		}
		h.Created(c, appadmin.MsgProductCreated, product)
		return nil
	})
}

// UpdateProduct replaces a product
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	var req appadmin.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	h.withToken(c, func(token string) error {
		product, err := h.admin.UpdateProduct(c.Request.Context(), token, c.Param("id"), req)
		if err != nil {
			return err
		}
		h.SuccessWithMessage(c, appadmin.MsgProductUpdated, product)
		return nil
	})
}

// DeleteProduct deletes a product
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	h.withToken(c, func(token string) error {
		if err := h.admin.DeleteProduct(c.Request.Context(), token, c.Param("id")); err != nil {
			return err
		}
		h.SuccessWithMessage(c, appadmin.MsgProductDeleted, nil)
		return nil
	})
}

// ImageUpload presigns a product image upload
func (h *AdminHandler) ImageUpload(c *gin.Context) {
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	h.withToken(c, func(token string) error {
		upload, err := h.admin.ImageUploadURL(c.Request.Context(), token, req.Filename, req.ContentType)
		if err != nil {
			return err
		}
		h.Success(c, upload)
		return nil
	})
}

// ListOrders lists every order
func (h *AdminHandler) ListOrders(c *gin.Context) {
	h.withToken(c, func(token string) error {
		orders, err := h.admin.Orders(c.Request.Context(), token)
		if err != nil {
			return err
		}
		h.Success(c, orders)
		return nil
	})
}

// UpdateOrderStatus moves an order to a new status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	id := c.Param("id")
	h.withToken(c, func(token string) error {
		status, err := h.admin.UpdateOrderStatus(c.Request.Context(), token, id, req.Status)
		if err != nil {
			return err
		}
		h.SuccessWithMessage(c, appadmin.MsgStatusUpdated, OrderStatusResponse{ID: id, Status: string(status)})
		return nil
	})
}
