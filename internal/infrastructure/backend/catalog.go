package backend

import (
	"context"
	"net/http"
	"net/url"

	catalogapp "github.com/minimart/storefront/internal/application/catalog"
	"github.com/minimart/storefront/internal/domain/catalog"
)

var _ catalogapp.Backend = (*CatalogAPI)(nil)

// CatalogAPI implements the public product catalog port.
type CatalogAPI struct {
	client *Client
}

// NewCatalogAPI creates a CatalogAPI
func NewCatalogAPI(client *Client) *CatalogAPI {
	return &CatalogAPI{client: client}
}

// ListProducts returns every product.
func (a *CatalogAPI) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []productDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/products"}, &out); err != nil {
		return nil, err
	}
	return toProducts(out), nil
}

// SearchProducts returns the products matching query.
func (a *CatalogAPI) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	var out []productDTO
	req := Request{
		Method: http.MethodGet,
		Path:   "/api/products/search",
		Query:  url.Values{"q": {query}},
	}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return toProducts(out), nil
}

// GetProduct returns product id.
func (a *CatalogAPI) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var out productDTO
	req := Request{
		Method: http.MethodGet,
		Path:   "/api/products/" + escape(id),
		Route:  "/api/products/:id",
	}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return catalog.Product{}, err
	}
	return out.toDomain(), nil
}
