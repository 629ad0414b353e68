package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/minimart/storefront/internal/application/catalog"
)

// CatalogHandler serves the public product pages
type CatalogHandler struct {
	BaseHandler
	catalog *appcatalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *appcatalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Home godoc
// @Summary      Home page
// @Description  All products with the featured carousel subset
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=appcatalog.HomePage}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /home [get]
func (h *CatalogHandler) Home(c *gin.Context) {
	page, err := h.catalog.Home(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Search godoc
// @Summary      Search products
// @Description  A blank query lists every product
// @Tags         catalog
// @Produce      json
// @Param        q query string false "Search text"
// @Success      200 {object} dto.Response{data=[]catalog.Product}
// @Router       /products/search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Product returns one product
func (h *CatalogHandler) Product(c *gin.Context) {
	product, err := h.catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
