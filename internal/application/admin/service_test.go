package admin

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minimart/storefront/internal/application/session"
	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/catalog"
	"github.com/minimart/storefront/internal/domain/order"
	"github.com/minimart/storefront/internal/domain/shared"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, creds account.Credentials) (string, account.Identity, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Get(1).(account.Identity), args.Error(2)
}

func (m *MockBackend) Register(ctx context.Context, reg account.AdminRegistration) (string, account.Identity, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Get(1).(account.Identity), args.Error(2)
}

func (m *MockBackend) Dashboard(ctx context.Context, token string) (Dashboard, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Dashboard), args.Error(1)
}

func (m *MockBackend) ListProducts(ctx context.Context, token string) ([]catalog.Product, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockBackend) CreateProduct(ctx context.Context, token string, in ProductInput) (catalog.Product, error) {
	args := m.Called(ctx, token, in)
	return args.Get(0).(catalog.Product), args.Error(1)
}

func (m *MockBackend) UpdateProduct(ctx context.Context, token, id string, in ProductInput) (catalog.Product, error) {
	args := m.Called(ctx, token, id, in)
	return args.Get(0).(catalog.Product), args.Error(1)
}

func (m *MockBackend) DeleteProduct(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *MockBackend) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockBackend) UpdateOrderStatus(ctx context.Context, token, id string, status order.Status) error {
	return m.Called(ctx, token, id, status).Error(0)
}

type fakeImages struct {
	keys []string
	err  error
}

func (f *fakeImages) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.keys = append(f.keys, key)
	return "https://upload.test/" + key, time.Now().Add(expiresIn), nil
}

func (f *fakeImages) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func validProduct() ProductInput {
	return ProductInput{
		Name:        " Apples ",
		Description: "Crisp",
		Price:       decimal.RequireFromString("1.999"),
		Category:    "Fruit",
		Stock:       10,
	}
}

func TestService_LoginStartsAdminSession(t *testing.T) {
	ctx := context.Background()
	creds := account.Credentials{Email: "root@example.com", Password: "pw"}
	backend := new(MockBackend)
	backend.On("Login", mock.Anything, creds).Return("admin-tok", account.Identity{Name: "Root"}, nil).Once()

	sess := session.NewStore()
	identity, err := NewService(backend).Login(ctx, sess, creds)
	require.NoError(t, err)

	assert.Equal(t, "root@example.com", identity.Email)
	assert.Equal(t, "admin-tok", sess.Token())
}

func TestService_RegisterRequiresMatchingPasswords(t *testing.T) {
	backend := new(MockBackend)
	reg := account.AdminRegistration{
		Name: "Root", Email: "root@example.com", Password: "secret1", ConfirmPassword: "secret2", SecretKey: "k",
	}

	_, err := NewService(backend).Register(context.Background(), session.NewStore(), reg)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, MsgPasswordMismatch, de.Message)
	backend.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestService_RegisterLogsInWithReturnedToken(t *testing.T) {
	reg := account.AdminRegistration{
		Name: "Root", Email: "root@example.com", Password: "secret1", ConfirmPassword: "secret1", SecretKey: "k",
	}
	backend := new(MockBackend)
	backend.On("Register", mock.Anything, reg).Return("admin-tok", account.Identity{}, nil).Once()

	sess := session.NewStore()
	identity, err := NewService(backend).Register(context.Background(), sess, reg)
	require.NoError(t, err)

	assert.Equal(t, "Root", identity.Name)
	assert.Equal(t, "admin-tok", sess.Token())
}

func TestService_DashboardDegradesOnBackendFailure(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Dashboard", mock.Anything, "tok").Return(Dashboard{}, errors.New("boom")).Once()

	d, err := NewService(backend).Dashboard(context.Background(), "tok")
	require.NoError(t, err)

	assert.True(t, d.Degraded)
	assert.Equal(t, 0, d.Stats.TotalOrders)
	assert.True(t, d.Stats.TotalRevenue.IsZero())
	assert.NotNil(t, d.RecentOrders)
}

func TestService_DashboardPropagatesUnauthorized(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Dashboard", mock.Anything, "tok").Return(Dashboard{}, shared.ErrUnauthorized).Once()

	_, err := NewService(backend).Dashboard(context.Background(), "tok")
	assert.True(t, shared.IsUnauthorized(err))

	_, err = NewService(backend).Dashboard(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrLoginRequired)
}

func TestService_CreateProductNormalizesInput(t *testing.T) {
	backend := new(MockBackend)
	backend.On("CreateProduct", mock.Anything, "tok", mock.MatchedBy(func(in ProductInput) bool {
		return in.Name == "Apples" && in.Price.Equal(decimal.RequireFromString("2.00"))
	})).Return(catalog.Product{ID: "p1", Name: "Apples"}, nil).Once()

	p, err := NewService(backend).CreateProduct(context.Background(), "tok", validProduct())
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	backend.AssertExpectations(t)
}

func TestService_ProductValidation(t *testing.T) {
	svc := NewService(new(MockBackend))
	ctx := context.Background()

	in := validProduct()
	in.Price = decimal.Zero
	_, err := svc.CreateProduct(ctx, "tok", in)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, MsgInvalidPrice, de.Message)

	in = validProduct()
	in.Stock = -1
	_, err = svc.UpdateProduct(ctx, "tok", "p1", in)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, MsgInvalidStock, de.Message)

	in = validProduct()
	in.Description = "  "
	_, err = svc.CreateProduct(ctx, "tok", in)
	var fe *shared.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "description", fe.Fields[0].Field)
}

func TestService_Categories(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListProducts", mock.Anything, "tok").Return([]catalog.Product{
		{ID: "1", Category: "Fruit"},
		{ID: "2", Category: ""},
		{ID: "3", Category: "Fruit"},
	}, nil).Once()

	stats, err := NewService(backend).Categories(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []catalog.CategoryStat{
		{Name: "Fruit", ProductCount: 2},
		{Name: catalog.UncategorizedName, ProductCount: 1},
	}, stats)
}

func TestService_UpdateOrderStatus(t *testing.T) {
	backend := new(MockBackend)
	backend.On("UpdateOrderStatus", mock.Anything, "tok", "o1", order.StatusShipped).Return(nil).Once()
	svc := NewService(backend)

	st, err := svc.UpdateOrderStatus(context.Background(), "tok", "o1", "Shipped")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, st)

	_, err = svc.UpdateOrderStatus(context.Background(), "tok", "o1", "lost")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.UpdateOrderStatus(context.Background(), "tok", "o1", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	backend.AssertNumberOfCalls(t, "UpdateOrderStatus", 1)
}

func TestService_ImageUploadURL(t *testing.T) {
	images := &fakeImages{}
	svc := NewService(new(MockBackend), WithImageStorage(images, time.Minute))

	up, err := svc.ImageUploadURL(context.Background(), "tok", "Photo.PNG", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "products/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Equal(t, "https://cdn.test/"+up.Key, up.PublicURL)
	assert.Equal(t, []string{up.Key}, images.keys)

	_, err = svc.ImageUploadURL(context.Background(), "tok", "doc.pdf", "application/pdf")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestService_ImageUploadWithoutStorage(t *testing.T) {
	_, err := NewService(new(MockBackend)).ImageUploadURL(context.Background(), "tok", "a.png", "image/png")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.ErrUnavailable.Code, de.Code)
}
