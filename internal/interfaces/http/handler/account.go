package handler

import (
	"github.com/gin-gonic/gin"

	appaccount "github.com/minimart/storefront/internal/application/account"
	"github.com/minimart/storefront/internal/domain/account"
)

// AccountHandler handles shopper login, registration and profile pages
type AccountHandler struct {
	BaseHandler
	accounts *appaccount.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *appaccount.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Login godoc
// @Summary      Shopper login
// @Description  Starts the visitor's shopper session and loads the cart
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body account.Credentials true "Login credentials"
// @Success      200 {object} dto.Response{data=SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req account.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}
	ctx := c.Request.Context()

	identity, err := h.accounts.Login(ctx, v.Session, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SessionResponse{
		Identity:  identity,
		ItemCount: v.Cart.Fetch(ctx, v.Session.Token()),
	})
}

// Register creates a shopper account. The shopper logs in afterwards.
func (h *AccountHandler) Register(c *gin.Context) {
	var req account.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	msg, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg, nil)
}

// Logout ends the shopper session, which also empties the cart
func (h *AccountHandler) Logout(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	h.accounts.Logout(c.Request.Context(), v.Session)
	h.SuccessWithMessage(c, "Logged out", nil)
}

// Profile returns the shopper's profile
func (h *AccountHandler) Profile(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()

	identity, err := h.accounts.Profile(c.Request.Context(), v.Session, token)
	if err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}
	h.Success(c, identity)
}

// UpdateProfile saves the profile form
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req account.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()

	identity, err := h.accounts.UpdateProfile(c.Request.Context(), v.Session, token, req)
	if err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}
	h.SuccessWithMessage(c, appaccount.MsgProfileUpdated, identity)
}

// ChangePassword changes the shopper's password
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req account.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	v := h.Visitor(c)
	if v == nil {
		return
	}
	token := v.Session.Token()

	if err := h.accounts.ChangePassword(c.Request.Context(), token, req); err != nil {
		h.HandleSessionError(c, v.Session, token, err)
		return
	}
	h.SuccessWithMessage(c, appaccount.MsgPasswordChanged, nil)
}

// Nav feeds the navigation bar: who is logged in, the cart count and
// whether to show the admin link.
func (h *AccountHandler) Nav(c *gin.Context) {
	v := h.Visitor(c)
	if v == nil {
		return
	}

	resp := NavResponse{IsAdmin: v.Admin.Authenticated()}
	if token := v.Session.Token(); token != "" {
		v.Cart.Fetch(c.Request.Context(), token)
	}
	if identity := v.Session.Identity(); v.Session.Authenticated() {
		resp.Authenticated = true
		resp.DisplayName = identity.DisplayName()
	}
	resp.ItemCount = v.Cart.ItemCount()
	h.Success(c, resp)
}
