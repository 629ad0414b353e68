package backend

import (
	"context"
	"net/http"

	adminapp "github.com/minimart/storefront/internal/application/admin"
	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/order"
	"github.com/minimart/storefront/internal/domain/shared"
)

var _ adminapp.Backend = (*AdminAPI)(nil)

// AdminAPI implements the admin port. Every call except login and register
// carries the admin token.
type AdminAPI struct {
	client *Client
}

// NewAdminAPI creates an AdminAPI
func NewAdminAPI(client *Client) *AdminAPI {
	return &AdminAPI{client: client}
}

// Login exchanges admin creds for an admin token.
func (a *AdminAPI) Login(ctx context.Context, creds account.Credentials) (string, account.Identity, error) {
	var out loginDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/api/admin/login", Body: creds}, &out); err != nil {
		return "", account.Identity{}, err
	}
	var identity account.Identity
	switch {
	case out.Admin != nil:
		identity = out.Admin.toIdentity()
	case out.User != nil:
		identity = out.User.toIdentity()
	}
	return out.Token, identity, nil
}

// Register creates an administrator. A reply with success=false is reported
// as invalid input carrying the backend's message.
func (a *AdminAPI) Register(ctx context.Context, reg account.AdminRegistration) (string, account.Identity, error) {
	var out adminRegisterDTO
	if err := a.client.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/admin/register",
		Body:   adminRegisterRequest{Name: reg.Name, Email: reg.Email, Password: reg.Password, SecretKey: reg.SecretKey},
	}, &out); err != nil {
		return "", account.Identity{}, err
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "Registration failed"
		}
		return "", account.Identity{}, shared.ValidationError(msg)
	}
	var identity account.Identity
	if out.Admin != nil {
		identity = out.Admin.toIdentity()
	}
	return out.Token, identity, nil
}

// Dashboard returns the dashboard stats and recent orders.
func (a *AdminAPI) Dashboard(ctx context.Context, token string) (adminapp.Dashboard, error) {
	var out dashboardDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/admin/dashboard", Token: token}, &out); err != nil {
		return adminapp.Dashboard{}, err
	}
	return adminapp.Dashboard{
		Stats: adminapp.Stats{
			TotalProducts: out.Stats.TotalProducts,
			TotalOrders:   out.Stats.TotalOrders,
			TotalUsers:    out.Stats.TotalUsers,
			TotalRevenue:  out.Stats.TotalRevenue,
			PendingOrders: out.Stats.PendingOrders,
		},
		RecentOrders: toOrders(out.RecentOrders),
	}, nil
}

// ListProducts returns every product, including out-of-stock ones.
func (a *AdminAPI) ListProducts(ctx context.Context, token string) ([]catalog.Product, error) {
	var out []productDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/admin/products", Token: token}, &out); err != nil {
		return nil, err
	}
	return toProducts(out), nil
}

// CreateProduct creates a product.
func (a *AdminAPI) CreateProduct(ctx context.Context, token string, in adminapp.ProductInput) (catalog.Product, error) {
	return a.saveProduct(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/admin/products",
		Token:  token,
		Body:   toProductRequest(in),
	})
}

// UpdateProduct replaces product id.
func (a *AdminAPI) UpdateProduct(ctx context.Context, token, id string, in adminapp.ProductInput) (catalog.Product, error) {
	p, err := a.saveProduct(ctx, Request{
		Method: http.MethodPut,
		Path:   "/api/admin/products/" + escape(id),
		Route:  "/api/admin/products/:id",
		Token:  token,
		Body:   toProductRequest(in),
	})
	if err == nil && p.ID == "" {
		p.ID = id
	}
	return p, err
}

// DeleteProduct deletes product id.
func (a *AdminAPI) DeleteProduct(ctx context.Context, token, id string) error {
	return a.client.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/api/admin/products/" + escape(id),
		Route:  "/api/admin/products/:id",
		Token:  token,
	}, nil)
}

// ListOrders returns every order.
func (a *AdminAPI) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	var out []orderDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/admin/orders", Token: token}, &out); err != nil {
		return nil, err
	}
	return toOrders(out), nil
}

// UpdateOrderStatus sets the status of order id.
func (a *AdminAPI) UpdateOrderStatus(ctx context.Context, token, id string, status order.Status) error {
	return a.client.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/api/admin/orders/" + escape(id),
		Route:  "/api/admin/orders/:id",
		Token:  token,
		Body:   orderStatusRequest{OrderStatus: string(status)},
	}, nil)
}

// saveProduct accepts both a bare product and {product: ...} replies.
func (a *AdminAPI) saveProduct(ctx context.Context, req Request) (catalog.Product, error) {
	var out struct {
		productDTO
		Product *productDTO `json:"product"`
	}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return catalog.Product{}, err
	}
	if out.Product != nil {
		return out.Product.toDomain(), nil
	}
	return out.productDTO.toDomain(), nil
}

func toProductRequest(in adminapp.ProductInput) productRequest {
	return productRequest{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.InexactFloat64(),
		Category:    in.Category,
		Stock:       in.Stock,
		Image:       in.Image,
	}
}
