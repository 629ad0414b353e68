// Package handler implements the storefront's JSON pages.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcart "github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/application/visitor"
	"github.com/minimart/storefront/internal/domain/shared"
	"github.com/minimart/storefront/internal/infrastructure/logger"
	"github.com/minimart/storefront/internal/interfaces/http/dto"
	"github.com/minimart/storefront/internal/interfaces/http/middleware"
)

// Invalidator ends a session whose token the backend rejected.
type Invalidator interface {
	Invalidate(ctx context.Context, token string) bool
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Visitor returns the request's visitor. It aborts with 500 and returns nil
// when the visitor middleware did not run.
func (h *BaseHandler) Visitor(c *gin.Context) *visitor.Visitor {
	v := middleware.GetVisitor(c)
	if v == nil {
		h.InternalError(c, "Visitor state unavailable")
	}
	return v
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMessage sends a success response with a user-facing message
func (h *BaseHandler) SuccessWithMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(message, data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, dto.NewMessageResponse(message, data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// LoginRequired sends a 401 asking the page to show the login screen
func (h *BaseHandler) LoginRequired(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeLoginRequired, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// HandleError converts application errors to HTTP responses. Backend errors
// keep the backend's message when it sent one.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var fieldErrs *shared.FieldErrors
	if errors.As(err, &fieldErrs) {
		details := make([]dto.ValidationDetail, 0, len(fieldErrs.Fields))
		for _, f := range fieldErrs.Fields {
			details = append(details, dto.ValidationDetail{Field: f.Field, Message: f.Message})
		}
		h.ValidationError(c, details)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, shared.BackendMessage(err, domainErr.Message))
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "The request was cancelled")
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// HandleSessionError is HandleError for calls made with a session token. A
// rejected token ends that session and asks the page to log in again.
func (h *BaseHandler) HandleSessionError(c *gin.Context, sess Invalidator, token string, err error) {
	if shared.IsUnauthorized(err) && token != "" {
		sess.Invalidate(c.Request.Context(), token)
		h.LoginRequired(c, appcart.MsgSessionExpired)
		return
	}
	h.HandleError(c, err)
}

// CartResult writes a cart mutation outcome along with the cart snapshot.
func (h *BaseHandler) CartResult(c *gin.Context, res appcart.Result, snap appcart.Snapshot) {
	switch {
	case res.Success:
		h.SuccessWithMessage(c, res.Message, snap)
	case res.RequiresLogin:
		h.LoginRequired(c, res.Message)
	case res.Busy:
		h.Error(c, http.StatusConflict, dto.ErrCodeBusy, res.Message)
	default:
		h.BadRequest(c, res.Message)
	}
}
