// Package order models placed orders as shown on the order history and
// admin order screens.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minimart/storefront/internal/domain/catalog"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status an admin may assign, in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus validates s. An empty string is read as pending.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusPending, nil
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Item is one ordered product. Product is nil when the product has since
// been deleted from the catalog.
type Item struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// Total returns the line total, or zero for a missing product.
func (i Item) Total() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed order.
type Order struct {
	ID              string          `json:"id"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaymentStatus   string          `json:"payment_status,omitempty"`
	Customer        string          `json:"customer,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Reference returns the short order number shown to shoppers: the last six
// characters of the id, upper-cased.
func (o Order) Reference() string {
	id := o.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

// AvailableItems returns the items whose product still exists.
func (o Order) AvailableItems() []Item {
	out := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Product != nil {
			out = append(out, it)
		}
	}
	return out
}

// CountByStatus counts orders in status st.
func CountByStatus(orders []Order, st Status) int {
	n := 0
	for _, o := range orders {
		if o.Status == st {
			n++
		}
	}
	return n
}
