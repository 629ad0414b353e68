package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/cart"
	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/order"
)

// Wire formats of the store backend. The backend is a document store behind
// a loosely typed API, so several fields have alternate spellings.

type productDTO struct {
	MongoID     string          `json:"_id"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
}

func (p productDTO) id() string {
	if p.MongoID != "" {
		return p.MongoID
	}
	return p.ID
}

func (p productDTO) image() string {
	if p.Image != "" {
		return p.Image
	}
	return p.ImageURL
}

func (p productDTO) toDomain() catalog.Product {
	return catalog.Product{
		ID:          p.id(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.image(),
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

func (p productDTO) toRef() cart.ProductRef {
	return cart.ProductRef{ID: p.id(), Name: p.Name, Price: p.Price, Image: p.image()}
}

func toProducts(in []productDTO) []catalog.Product {
	out := make([]catalog.Product, 0, len(in))
	for _, p := range in {
		out = append(out, p.toDomain())
	}
	return out
}

// optionalProduct is a product reference that may be null, a bare id or a
// populated document.
type optionalProduct struct {
	product *productDTO
}

func (o *optionalProduct) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		if id != "" {
			o.product = &productDTO{ID: id}
		}
		return nil
	}
	var p productDTO
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	o.product = &p
	return nil
}

type cartItemDTO struct {
	Product  optionalProduct `json:"product"`
	Quantity int             `json:"quantity"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
}

func (c cartDTO) toLines() []cart.Line {
	lines := make([]cart.Line, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Product.product == nil {
			continue
		}
		lines = append(lines, cart.Line{Product: it.Product.product.toRef(), Quantity: it.Quantity})
	}
	return lines
}

type mutationDTO struct {
	Message   string     `json:"message"`
	ItemCount looseCount `json:"itemCount"`
}

// looseCount is an optional item count sent as a number or a numeric
// string. Values that are not a non-negative whole number are ignored.
type looseCount struct {
	n *int
}

func (c *looseCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	c.n = &n
	return nil
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

// customer is an order's user: a populated document or a bare id.
type customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *customer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	type plain customer
	return json.Unmarshal(data, (*plain)(c))
}

func (c customer) display() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

type orderItemDTO struct {
	Product  optionalProduct `json:"product"`
	Quantity int             `json:"quantity"`
}

type orderDTO struct {
	MongoID         string          `json:"_id"`
	ID              string          `json:"id"`
	Items           []orderItemDTO  `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCamel      decimal.Decimal `json:"totalAmount"`
	Total           decimal.Decimal `json:"total"`
	OrderStatus     string          `json:"order_status"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	User            customer        `json:"user"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (o orderDTO) toDomain() order.Order {
	id := o.MongoID
	if id == "" {
		id = o.ID
	}

	total := o.TotalAmount
	if total.IsZero() {
		total = o.TotalCamel
	}
	if total.IsZero() {
		total = o.Total
	}

	raw := o.OrderStatus
	if raw == "" {
		raw = o.Status
	}
	status, err := order.ParseStatus(raw)
	if err != nil {
		status = order.Status(raw)
	}

	items := make([]order.Item, 0, len(o.Items))
	for _, it := range o.Items {
		var p *catalog.Product
		if it.Product.product != nil {
			prod := it.Product.product.toDomain()
			p = &prod
		}
		items = append(items, order.Item{Product: p, Quantity: it.Quantity})
	}

	return order.Order{
		ID:              id,
		Items:           items,
		Total:           total,
		Status:          status,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Customer:        o.User.display(),
		CreatedAt:       o.CreatedAt,
	}
}

func toOrders(in []orderDTO) []order.Order {
	out := make([]order.Order, 0, len(in))
	for _, o := range in {
		out = append(out, o.toDomain())
	}
	return out
}

type messageDTO struct {
	Message string `json:"message"`
}

type userDTO struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

func (u userDTO) toIdentity() account.Identity {
	id := u.MongoID
	if id == "" {
		id = u.ID
	}
	return account.Identity{ID: id, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

type loginDTO struct {
	Token string   `json:"token"`
	User  *userDTO `json:"user"`
	Admin *userDTO `json:"admin"`
}

type adminRegisterDTO struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	Admin   *userDTO `json:"admin"`
	Message string   `json:"message"`
}

type adminRegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	SecretKey string `json:"secretKey"`
}

type statsDTO struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalUsers    int             `json:"totalUsers"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingOrders int             `json:"pendingOrders"`
}

type dashboardDTO struct {
	Stats        statsDTO   `json:"stats"`
	RecentOrders []orderDTO `json:"recentOrders"`
}

// productRequest sends the price as a JSON number.
type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
}

type orderStatusRequest struct {
	OrderStatus string `json:"order_status"`
}

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
