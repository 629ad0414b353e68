// Package catalog serves the public product pages.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/shared"
)

// Backend is the store backend's public product API.
type Backend interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	SearchProducts(ctx context.Context, query string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// PriceRange is the cheapest and most expensive price in a listing.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// HomePage is everything the home page shows.
type HomePage struct {
	Products   []catalog.Product `json:"products"`
	Featured   []catalog.Product `json:"featured"`
	PriceRange *PriceRange       `json:"price_range,omitempty"`
}

// Service handles product browsing
type Service struct {
	backend       Backend
	featuredCount int
	logger        *zap.Logger
}

// NewService creates a new catalog Service
func NewService(backend Backend, featuredCount int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, featuredCount: featuredCount, logger: logger}
}

// Home lists all products with the featured subset and price range.
func (s *Service) Home(ctx context.Context) (HomePage, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return HomePage{}, fmt.Errorf("list products: %w", err)
	}
	return HomePage{
		Products:   products,
		Featured:   catalog.Featured(products, s.featuredCount),
		PriceRange: priceRange(products),
	}, nil
}

// Search finds products matching query. A blank query lists everything.
func (s *Service) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		products, err := s.backend.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return products, nil
	}

	products, err := s.backend.SearchProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search products %q: %w", query, err)
	}
	s.logger.Debug("Product search", zap.String("query", query), zap.Int("results", len(products)))
	return products, nil
}

// Product returns one product.
func (s *Service) Product(ctx context.Context, id string) (catalog.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Product{}, shared.ValidationError("Invalid product")
	}
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func priceRange(products []catalog.Product) *PriceRange {
	if len(products) == 0 {
		return nil
	}
	r := &PriceRange{Min: products[0].Price, Max: products[0].Price}
	for _, p := range products[1:] {
		r.Min = decimal.Min(r.Min, p.Price)
		r.Max = decimal.Max(r.Max, p.Price)
	}
	return r
}
