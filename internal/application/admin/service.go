// Package admin handles the administrator screens: dashboard, product
// management, order status updates and product image uploads.
package admin

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/order"
	"github.com/minimart/storefront/internal/domain/shared"
)

// Messages shown after admin operations.
const (
	MsgPasswordMismatch = "Passwords do not match"
	MsgInvalidPrice     = "Price must be greater than 0"
	MsgInvalidStock     = "Stock cannot be negative"
	MsgProductCreated   = "Product created successfully!"
	MsgProductUpdated   = "Product updated successfully!"
	MsgProductDeleted   = "Product deleted successfully!"
	MsgStatusUpdated    = "Order status updated successfully!"
	MsgImageType        = "Only image uploads are allowed"
)

const defaultUploadExpiry = 15 * time.Minute

// Backend is the store backend's admin API.
type Backend interface {
	Login(ctx context.Context, creds account.Credentials) (string, account.Identity, error)
	Register(ctx context.Context, reg account.AdminRegistration) (string, account.Identity, error)
	Dashboard(ctx context.Context, token string) (Dashboard, error)
	ListProducts(ctx context.Context, token string) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, token string, in ProductInput) (catalog.Product, error)
	UpdateProduct(ctx context.Context, token, id string, in ProductInput) (catalog.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
	ListOrders(ctx context.Context, token string) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status order.Status) error
}

// ImageStorage issues upload URLs for product images.
type ImageStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	PublicURL(key string) string
}

// Session is the part of the admin session this package writes.
type Session interface {
	Login(ctx context.Context, token string, identity account.Identity)
	Logout(ctx context.Context)
}

// Stats are the dashboard counters.
type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalUsers    int             `json:"totalUsers"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingOrders int             `json:"pendingOrders"`
}

// Dashboard is the admin landing screen. Degraded is set when the backend
// could not be reached and the zero defaults are shown instead.
type Dashboard struct {
	Stats        Stats         `json:"stats"`
	RecentOrders []order.Order `json:"recentOrders"`
	Degraded     bool          `json:"degraded,omitempty"`
}

// ProductInput is the product create/edit form.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"omitempty,max=100"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image" validate:"omitempty,max=2048"`
}

// ImageUpload is a presigned product image upload.
type ImageUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service handles admin operations
type Service struct {
	backend Backend
	images  ImageStorage
	expiry  time.Duration
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithImageStorage enables presigned product image uploads.
func WithImageStorage(images ImageStorage, expiry time.Duration) Option {
	return func(s *Service) {
		s.images = images
		if expiry > 0 {
			s.expiry = expiry
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new admin Service
func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		expiry:  defaultUploadExpiry,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates an administrator and starts the admin session.
func (s *Service) Login(ctx context.Context, sess Session, creds account.Credentials) (account.Identity, error) {
	if err := shared.Validate(creds); err != nil {
		return account.Identity{}, err
	}
	token, identity, err := s.backend.Login(ctx, creds)
	if err != nil {
		return account.Identity{}, fmt.Errorf("admin login: %w", err)
	}
	if identity.Email == "" {
		identity.Email = creds.Email
	}
	sess.Login(ctx, token, identity)
	s.logger.Info("Admin logged in", zap.String("email", identity.Email))
	return identity, nil
}

// Register creates an administrator and, when the backend returns a token,
// starts the admin session with it.
func (s *Service) Register(ctx context.Context, sess Session, reg account.AdminRegistration) (account.Identity, error) {
	if err := shared.Validate(reg); err != nil {
		return account.Identity{}, err
	}
	if reg.Password != reg.ConfirmPassword {
		return account.Identity{}, shared.ValidationError(MsgPasswordMismatch)
	}
	token, identity, err := s.backend.Register(ctx, reg)
	if err != nil {
		return account.Identity{}, fmt.Errorf("admin register: %w", err)
	}
	if identity.IsZero() {
		identity = account.Identity{Name: reg.Name, Email: reg.Email}
	}
	if token != "" {
		sess.Login(ctx, token, identity)
	}
	return identity, nil
}

// Logout ends the admin session.
func (s *Service) Logout(ctx context.Context, sess Session) {
	sess.Logout(ctx)
}

// Dashboard returns the dashboard. Errors other than a rejected token are
// logged and replaced by zero stats with Degraded set.
func (s *Service) Dashboard(ctx context.Context, token string) (Dashboard, error) {
	if token == "" {
		return Dashboard{}, shared.ErrLoginRequired
	}
	d, err := s.backend.Dashboard(ctx, token)
	if err != nil {
		if shared.IsUnauthorized(err) {
			return Dashboard{}, fmt.Errorf("dashboard: %w", err)
		}
		s.logger.Warn("Dashboard unavailable, showing defaults", zap.Error(err))
		return Dashboard{Stats: Stats{TotalRevenue: decimal.Zero}, RecentOrders: []order.Order{}, Degraded: true}, nil
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []order.Order{}
	}
	return d, nil
}

// Products lists every product.
func (s *Service) Products(ctx context.Context, token string) ([]catalog.Product, error) {
	if token == "" {
		return nil, shared.ErrLoginRequired
	}
	products, err := s.backend.ListProducts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Categories counts products per category.
func (s *Service) Categories(ctx context.Context, token string) ([]catalog.CategoryStat, error) {
	products, err := s.Products(ctx, token)
	if err != nil {
		return nil, err
	}
	return catalog.CategoryStats(products), nil
}

// CreateProduct validates in and creates the product.
func (s *Service) CreateProduct(ctx context.Context, token string, in ProductInput) (catalog.Product, error) {
	if token == "" {
		return catalog.Product{}, shared.ErrLoginRequired
	}
	in, err := normalizeProduct(in)
	if err != nil {
		return catalog.Product{}, err
	}
	p, err := s.backend.CreateProduct(ctx, token, in)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct validates in and replaces product id.
func (s *Service) UpdateProduct(ctx context.Context, token, id string, in ProductInput) (catalog.Product, error) {
	if token == "" {
		return catalog.Product{}, shared.ErrLoginRequired
	}
	if strings.TrimSpace(id) == "" {
		return catalog.Product{}, shared.ValidationError("Invalid product")
	}
	in, err := normalizeProduct(in)
	if err != nil {
		return catalog.Product{}, err
	}
	p, err := s.backend.UpdateProduct(ctx, token, id, in)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// DeleteProduct deletes product id.
func (s *Service) DeleteProduct(ctx context.Context, token, id string) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	if strings.TrimSpace(id) == "" {
		return shared.ValidationError("Invalid product")
	}
	if err := s.backend.DeleteProduct(ctx, token, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// Orders lists every order.
func (s *Service) Orders(ctx context.Context, token string) ([]order.Order, error) {
	if token == "" {
		return nil, shared.ErrLoginRequired
	}
	orders, err := s.backend.ListOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves order id to status. Unknown statuses are rejected
// before calling the backend.
func (s *Service) UpdateOrderStatus(ctx context.Context, token, id, status string) (order.Status, error) {
	if token == "" {
		return "", shared.ErrLoginRequired
	}
	if strings.TrimSpace(id) == "" {
		return "", shared.ValidationError("Invalid order")
	}
	st, err := order.ParseStatus(status)
	if err != nil || strings.TrimSpace(status) == "" {
		return "", shared.ValidationError("Invalid order status")
	}
	if err := s.backend.UpdateOrderStatus(ctx, token, id, st); err != nil {
		return "", fmt.Errorf("update order %s status: %w", id, err)
	}
	s.logger.Info("Order status updated", zap.String("order_id", id), zap.String("status", string(st)))
	return st, nil
}

// ImageUploadURL presigns an upload for a product image named filename.
func (s *Service) ImageUploadURL(ctx context.Context, token, filename, contentType string) (ImageUpload, error) {
	if token == "" {
		return ImageUpload{}, shared.ErrLoginRequired
	}
	if s.images == nil {
		return ImageUpload{}, shared.NewDomainError(shared.ErrUnavailable.Code, "Image uploads are not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ImageUpload{}, shared.ValidationError(MsgImageType)
	}

	key := "products/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
	uploadURL, expiresAt, err := s.images.GenerateUploadURL(ctx, key, contentType, s.expiry)
	if err != nil {
		return ImageUpload{}, fmt.Errorf("presign image upload: %w", err)
	}
	return ImageUpload{
		UploadURL: uploadURL,
		PublicURL: s.images.PublicURL(key),
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeProduct(in ProductInput) (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if err := shared.Validate(in); err != nil {
		return in, err
	}
	if !in.Price.IsPositive() {
		return in, shared.ValidationError(MsgInvalidPrice)
	}
	if in.Stock < 0 {
		return in, shared.ValidationError(MsgInvalidStock)
	}
	in.Price = in.Price.Round(2)
	return in, nil
}
