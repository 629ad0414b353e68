// Package catalog contains the product model shown on storefront pages.
package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UncategorizedName is used for products without a category.
const UncategorizedName = "Uncategorized"

// Product is a sellable item as published by the backend.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// DisplayPrice returns the price formatted for display.
func (p Product) DisplayPrice() string {
	return FormatPrice(p.Price)
}

// CategoryStat counts the products in one category.
type CategoryStat struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// CategoryStats groups products by category name, sorted by name. Products
// without a category are counted under UncategorizedName.
func CategoryStats(products []Product) []CategoryStat {
	counts := make(map[string]int)
	for _, p := range products {
		name := strings.TrimSpace(p.Category)
		if name == "" {
			name = UncategorizedName
		}
		counts[name]++
	}

	stats := make([]CategoryStat, 0, len(counts))
	for name, n := range counts {
		stats = append(stats, CategoryStat{Name: name, ProductCount: n})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Featured returns at most n products for the home page carousel.
func Featured(products []Product, n int) []Product {
	if n <= 0 {
		return nil
	}
	if len(products) < n {
		n = len(products)
	}
	out := make([]Product, n)
	copy(out, products[:n])
	return out
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders an amount in US dollars with two decimals and
// thousands grouping, e.g. "$1,234.50".
func FormatPrice(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	if f < 0 {
		return "-$" + pricePrinter.Sprintf("%.2f", -f)
	}
	return "$" + pricePrinter.Sprintf("%.2f", f)
}
