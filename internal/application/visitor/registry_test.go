package visitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/application/session"
	"github.com/minimart/storefront/internal/application/visitor"
	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/cart"
	"github.com/minimart/storefront/internal/infrastructure/sessionrepo"
)

type cartBackend struct {
	lines []cart.Line
}

func (b *cartBackend) GetCart(context.Context, string) ([]cart.Line, error) {
	return b.lines, nil
}

func (b *cartBackend) AddItem(context.Context, string, string, int) (cartapp.MutationReply, error) {
	return cartapp.MutationReply{}, nil
}

func (b *cartBackend) RemoveItem(context.Context, string, string) (cartapp.MutationReply, error) {
	return cartapp.MutationReply{}, nil
}

func (b *cartBackend) UpdateItem(context.Context, string, string, int) (cartapp.MutationReply, error) {
	return cartapp.MutationReply{}, nil
}

type gauge struct {
	mu   sync.Mutex
	last int
}

func (g *gauge) SetActiveVisitors(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestRegistry_GetReturnsSameVisitor(t *testing.T) {
	ctx := context.Background()
	g := &gauge{}
	r := visitor.NewRegistry(&cartBackend{}, visitor.WithGauge(g))

	a := r.Get(ctx, "v1")
	b := r.Get(ctx, "v1")
	c := r.Get(ctx, "v2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a.Session, a.Admin)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, g.last)
}

func TestRegistry_LogoutClearsCart(t *testing.T) {
	ctx := context.Background()
	backend := &cartBackend{lines: []cart.Line{{Product: cart.ProductRef{ID: "p1"}, Quantity: 3}}}
	v := visitor.NewRegistry(backend).Get(ctx, "v1")

	v.Session.Login(ctx, "tok", account.Identity{Name: "Ada"})
	require.Equal(t, 3, v.Cart.Fetch(ctx, v.Session.Token()))

	v.Session.Logout(ctx)
	assert.Equal(t, 0, v.Cart.ItemCount())
	assert.True(t, v.Cart.State().IsEmpty())
}

func TestRegistry_AdminLogoutKeepsCart(t *testing.T) {
	ctx := context.Background()
	backend := &cartBackend{lines: []cart.Line{{Product: cart.ProductRef{ID: "p1"}, Quantity: 1}}}
	v := visitor.NewRegistry(backend).Get(ctx, "v1")

	v.Session.Login(ctx, "tok", account.Identity{})
	v.Admin.Login(ctx, "admin-tok", account.Identity{})
	v.Cart.Fetch(ctx, v.Session.Token())

	v.Admin.Logout(ctx)
	assert.Equal(t, 1, v.Cart.ItemCount())
	assert.Equal(t, "tok", v.Session.Token())
}

func TestRegistry_RestoresPersistedSessions(t *testing.T) {
	ctx := context.Background()
	repo := sessionrepo.NewInMemoryRepository()
	require.NoError(t, repo.Save(ctx, "v1:user", session.Record{Token: "tok", Identity: account.Identity{Email: "ada@example.com"}}, 0))
	require.NoError(t, repo.Save(ctx, "v1:admin", session.Record{Token: "admin-tok"}, 0))

	v := visitor.NewRegistry(&cartBackend{}, visitor.WithRepository(repo, time.Hour)).Get(ctx, "v1")

	assert.Equal(t, "tok", v.Session.Token())
	assert.Equal(t, "ada@example.com", v.Session.Identity().Email)
	assert.Equal(t, "admin-tok", v.Admin.Token())
}

func TestRegistry_SweepEvictsIdleVisitors(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := sessionrepo.NewInMemoryRepository()
	g := &gauge{}
	r := visitor.NewRegistry(&cartBackend{},
		visitor.WithRepository(repo, 0),
		visitor.WithIdleTimeout(10*time.Minute),
		visitor.WithClock(clk.now),
		visitor.WithGauge(g),
	)

	old := r.Get(ctx, "old")
	old.Session.Login(ctx, "tok", account.Identity{})

	clk.t = clk.t.Add(8 * time.Minute)
	r.Get(ctx, "fresh")

	clk.t = clk.t.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep(clk.t))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, g.last)

	// An evicted visitor comes back logged in.
	back := r.Get(ctx, "old")
	assert.NotSame(t, old, back)
	assert.Equal(t, "tok", back.Session.Token())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	r := visitor.NewRegistry(&cartBackend{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
