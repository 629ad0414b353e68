package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minimart/storefront/internal/application/visitor"
	"github.com/minimart/storefront/internal/infrastructure/config"
	"github.com/minimart/storefront/internal/infrastructure/logger"
)

// VisitorKey is the gin context key of the current *visitor.Visitor.
const VisitorKey = "visitor"

// Visitors resolves the visitor cookie to the visitor's client state. A
// missing or malformed cookie starts a new visitor. The cookie is refreshed
// on every request so it lives as long as the persisted session.
func Visitors(registry *visitor.Registry, cfg config.SessionConfig) gin.HandlerFunc {
	sameSite := parseSameSite(cfg.SameSite)
	maxAge := int(cfg.TTL.Seconds())

	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err == nil {
			if parsed, perr := uuid.Parse(id); perr == nil {
				id = parsed.String()
			} else {
				err = perr
			}
		}
		if err != nil {
			id = uuid.New().String()
		}

		c.SetSameSite(sameSite)
		c.SetCookie(cfg.CookieName, id, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)

		ctx := c.Request.Context()
		ctx, log := logger.WithVisitorID(ctx, logger.FromContext(ctx), id)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinLoggerKey, log)
		c.Set(logger.GinVisitorIDKey, id)
		c.Set(VisitorKey, registry.Get(ctx, id))

		c.Next()
	}
}

// GetVisitor returns the visitor resolved by Visitors, or nil.
func GetVisitor(c *gin.Context) *visitor.Visitor {
	if v, ok := c.Get(VisitorKey); ok {
		if vis, ok := v.(*visitor.Visitor); ok {
			return vis
		}
	}
	return nil
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
