package router

import (
	"github.com/gin-gonic/gin"

	"github.com/minimart/storefront/internal/interfaces/http/handler"
)

// Handlers are the page handlers served under the versioned API.
type Handlers struct {
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Orders  *handler.OrderHandler
	Account *handler.AccountHandler
	Admin   *handler.AdminHandler

	// Visitors resolves the visitor for every page that reads session or
	// cart state. Catalog pages are served without it, so anonymous
	// browsing never allocates a visitor.
	Visitors gin.HandlerFunc
}

// Storefront registers every storefront page on r.
func Storefront(r *Router, h Handlers) *Router {
	catalogRoutes := NewDomainGroup("catalog", "")
	catalogRoutes.GET("/home", h.Catalog.Home)
	catalogRoutes.GET("/products/search", h.Catalog.Search)
	catalogRoutes.GET("/products/:id", h.Catalog.Product)

	cartRoutes := NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", h.Cart.Get)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PATCH("/items/:productId", h.Cart.UpdateItem)
	cartRoutes.DELETE("/items/:productId", h.Cart.RemoveItem)

	orderRoutes := NewDomainGroup("orders", "")
	orderRoutes.GET("/checkout", h.Orders.Preview)
	orderRoutes.POST("/checkout", h.Orders.Checkout)
	orderRoutes.GET("/orders", h.Orders.List)
	orderRoutes.DELETE("/orders/:id", h.Orders.Cancel)

	accountRoutes := NewDomainGroup("account", "")
	accountRoutes.POST("/auth/login", h.Account.Login)
	accountRoutes.POST("/auth/register", h.Account.Register)
	accountRoutes.POST("/auth/logout", h.Account.Logout)
	accountRoutes.GET("/profile", h.Account.Profile)
	accountRoutes.PUT("/profile", h.Account.UpdateProfile)
	accountRoutes.PUT("/profile/password", h.Account.ChangePassword)
	accountRoutes.GET("/nav", h.Account.Nav)

	adminRoutes := NewDomainGroup("admin", "/admin")
	adminRoutes.POST("/login", h.Admin.Login)
	adminRoutes.POST("/register", h.Admin.Register)
	adminRoutes.POST("/logout", h.Admin.Logout)
	adminRoutes.GET("/dashboard", h.Admin.Dashboard)
	adminRoutes.GET("/products", h.Admin.ListProducts)
	adminRoutes.POST("/products", h.Admin.CreateProduct)
	adminRoutes.POST("/products/image-upload", h.Admin.ImageUpload)
	adminRoutes.PUT("/products/:id", h.Admin.UpdateProduct)
	adminRoutes.DELETE("/products/:id", h.Admin.DeleteProduct)
	adminRoutes.GET("/orders", h.Admin.ListOrders)
	adminRoutes.PUT("/orders/:id/status", h.Admin.UpdateOrderStatus)
	adminRoutes.GET("/categories", h.Admin.Categories)

	if h.Visitors != nil {
		for _, g := range []*DomainGroup{cartRoutes, orderRoutes, accountRoutes, adminRoutes} {
			g.Use(h.Visitors)
		}
	}

	return r.Register(catalogRoutes).
		Register(cartRoutes).
		Register(orderRoutes).
		Register(accountRoutes).
		Register(adminRoutes)
}
