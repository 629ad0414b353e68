// Package cart holds the client-side view of a shopper's cart.
//
// A State is always normalized: one line per product id, every quantity at
// least 1. Removal is represented by the absence of a line.
package cart

import (
	"github.com/shopspring/decimal"
)

// ProductRef identifies a product together with the denormalized fields
// needed to render a cart line.
type ProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// Line is one product and its quantity.
type Line struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// Total returns unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is an immutable, normalized cart.
type State struct {
	items     []Line
	itemCount int
}

// Empty returns a cart with no lines.
func Empty() State {
	return State{}
}

// NewState builds a normalized State from lines as reported by the backend.
// Lines without a product id or with a quantity below 1 are dropped, and
// repeated product ids are merged into the first occurrence.
func NewState(lines []Line) State {
	s := State{items: make([]Line, 0, len(lines))}
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Product.ID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.Product.ID]; ok {
			s.items[i].Quantity += l.Quantity
		} else {
			index[l.Product.ID] = len(s.items)
			s.items = append(s.items, l)
		}
		s.itemCount += l.Quantity
	}
	return s
}

// Items returns a copy of the cart lines in backend order.
func (s State) Items() []Line {
	out := make([]Line, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct lines.
func (s State) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.items) == 0
}

// ItemCount returns the sum of quantities over all lines.
func (s State) ItemCount() int {
	return s.itemCount
}

// Subtotal returns the sum of line totals.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.items {
		total = total.Add(l.Total())
	}
	return total
}

// Line returns the line for productID, if present.
func (s State) Line(productID string) (Line, bool) {
	for _, l := range s.items {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return Line{}, false
}
