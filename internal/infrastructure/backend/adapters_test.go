package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminapp "github.com/minimart/storefront/internal/application/admin"
	cartapp "github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/order"
	"github.com/minimart/storefront/internal/domain/shared"
)

func TestCartAPI_GetCartSkipsDeletedProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[
			{"product":{"_id":"p1","name":"Apples","price":1.5,"imageUrl":"a.png"},"quantity":2},
			{"product":null,"quantity":4},
			{"product":{"_id":"p2","name":"Pears","price":"2.25"},"quantity":1}
		]}`))
	})

	lines, err := NewCartAPI(c).GetCart(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].Product.ID)
	assert.Equal(t, "a.png", lines[0].Product.Image)
	assert.True(t, lines[0].Product.Price.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, lines[1].Product.Price.Equal(decimal.RequireFromString("2.25")))
}

func TestCartAPI_MutationReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart/add":
			_, _ = w.Write([]byte(`{"message":"Added","itemCount":3}`))
		case "/api/cart/remove":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"productId":"p1"}`, string(body))
			_, _ = w.Write([]byte(`{"message":"Removed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	api := NewCartAPI(c)

	reply, err := api.AddItem(context.Background(), "tok", "p1", 1)
	require.NoError(t, err)
	require.NotNil(t, reply.ItemCount)
	assert.Equal(t, 3, *reply.ItemCount)
	assert.Equal(t, "Added", reply.Message)

	reply, err = api.RemoveItem(context.Background(), "tok", "p1")
	require.NoError(t, err)
	assert.Nil(t, reply.ItemCount)

	_, err = api.UpdateItem(context.Background(), "tok", "p1", 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCartAPI_MutationReplyCountShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int
	}{
		{"number", `{"itemCount":3}`, intPtr(3)},
		{"whole float", `{"itemCount":3.0}`, intPtr(3)},
		{"numeric string", `{"itemCount":" 3 "}`, intPtr(3)},
		{"null", `{"itemCount":null}`, nil},
		{"fraction", `{"itemCount":2.5}`, nil},
		{"negative", `{"itemCount":-1}`, nil},
		{"word", `{"itemCount":"three"}`, nil},
		{"object", `{"itemCount":{"n":3}}`, nil},
		{"unreadable body", `Added to cart`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			reply, err := NewCartAPI(c).AddItem(context.Background(), "tok", "p1", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.ItemCount)
		})
	}
}

func TestCartAPI_LooseReplyStillReconciles(t *testing.T) {
	for _, body := range []string{`{"itemCount":"3","message":"Added"}`, `{"itemCount":3.0}`, `<html>ok</html>`} {
		t.Run(body, func(t *testing.T) {
			var fetches atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/cart/add":
					_, _ = w.Write([]byte(body))
				case "/api/cart":
					fetches.Add(1)
					_, _ = w.Write([]byte(`{"items":[{"product":{"_id":"p1","name":"Apples","price":1.5},"quantity":3}]}`))
				}
			})
			store := cartapp.NewStore(NewCartAPI(c), nil)

			res := store.AddItem(context.Background(), "tok", "p1", 1)

			assert.True(t, res.Success, res.Message)
			assert.Equal(t, int32(1), fetches.Load())
			assert.Equal(t, 3, store.ItemCount())
			assert.True(t, store.Snapshot().Reconciled)
		})
	}
}

func intPtr(n int) *int { return &n }

func TestCatalogAPI_GetProductEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"a/b","name":"Odd","price":3,"stock":5,"category":"Misc"}`))
	})

	p, err := NewCatalogAPI(c).GetProduct(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", p.ID)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, "Misc", p.Category)
}

func TestOrderAPI_ListOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"_id":"64f1a2b3c4d5e6f7a8c0ffee","order_status":"shipped","total_amount":12.5,
			 "user":{"name":"Ada","email":"ada@example.com"},"createdAt":"2024-03-01T10:00:00.000Z",
			 "items":[{"product":{"_id":"p1","name":"Apples","price":2.5},"quantity":5},{"product":null,"quantity":1}]},
			{"id":"o2","status":"Pending","total":3,"user":"64f1"}
		]`))
	})

	orders, err := NewOrderAPI(c).ListOrders(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, order.StatusShipped, first.Status)
	assert.True(t, first.Total.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Ada", first.Customer)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	require.Len(t, first.Items, 2)
	assert.Nil(t, first.Items[1].Product)

	second := orders[1]
	assert.Equal(t, "o2", second.ID)
	assert.Equal(t, order.StatusPending, second.Status)
	assert.Empty(t, second.Customer)
}

func TestOrderAPI_SimpleCheckout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/simple-checkout", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"shipping_address":"1 Main St"}`, string(body))
		_, _ = w.Write([]byte(`{"message":"Order placed"}`))
	})

	msg, err := NewOrderAPI(c).SimpleCheckout(context.Background(), "tok", "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, "Order placed", msg)
}

func TestAccountAPI_ProfileAndPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/auth/profile":
			_, _ = w.Write([]byte(`{"_id":"u1","name":"Ada","email":"ada@example.com","phone":"555"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/auth/profile":
			_, _ = w.Write([]byte(`{"message":"Profile updated","user":{"_id":"u1","name":"Grace","email":"g@example.com"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/auth/change-password":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["currentPassword"] != "old" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"Current password is incorrect"}`))
				return
			}
			_, _ = w.Write([]byte(`{"message":"Password changed"}`))
		}
	})
	api := NewAccountAPI(c)
	ctx := context.Background()

	identity, err := api.GetProfile(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, account.Identity{ID: "u1", Name: "Ada", Email: "ada@example.com", Phone: "555"}, identity)

	identity, err = api.UpdateProfile(ctx, "tok", account.ProfileUpdate{Name: "Grace", Email: "g@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", identity.Name)

	require.NoError(t, api.ChangePassword(ctx, "tok", "old", "newpass"))
	err = api.ChangePassword(ctx, "tok", "wrong", "newpass")
	assert.Equal(t, "Current password is incorrect", shared.BackendMessage(err, ""))
}

func TestAdminAPI_RegisterFailureCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "confirmPassword")
		assert.Equal(t, "k", body["secretKey"])
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid secret key"}`))
	})

	_, _, err := NewAdminAPI(c).Register(context.Background(), account.AdminRegistration{
		Name: "Root", Email: "root@example.com", Password: "secret1", ConfirmPassword: "secret1", SecretKey: "k",
	})

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Invalid secret key", de.Message)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAdminAPI_DashboardAndProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin-tok", r.Header.Get("Authorization"))
		switch {
		case r.URL.Path == "/api/admin/dashboard":
			_, _ = w.Write([]byte(`{"stats":{"totalProducts":4,"totalOrders":2,"totalUsers":7,"totalRevenue":99.9,"pendingOrders":1},
				"recentOrders":[{"_id":"o1","order_status":"pending","total_amount":10}]}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/products/p1":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 2.5, body["price"])
			_, _ = w.Write([]byte(`{"message":"Updated","product":{"_id":"p1","name":"Apples","price":2.5}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/orders/o1":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"order_status":"delivered"}`, string(body))
		}
	})
	api := NewAdminAPI(c)
	ctx := context.Background()

	d, err := api.Dashboard(ctx, "admin-tok")
	require.NoError(t, err)
	assert.Equal(t, 7, d.Stats.TotalUsers)
	assert.True(t, d.Stats.TotalRevenue.Equal(decimal.RequireFromString("99.9")))
	require.Len(t, d.RecentOrders, 1)
	assert.Equal(t, order.StatusPending, d.RecentOrders[0].Status)

	p, err := api.UpdateProduct(ctx, "admin-tok", "p1", adminapp.ProductInput{
		Name: "Apples", Description: "Crisp", Price: decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Apples", p.Name)

	require.NoError(t, api.UpdateOrderStatus(ctx, "admin-tok", "o1", order.StatusDelivered))
}
