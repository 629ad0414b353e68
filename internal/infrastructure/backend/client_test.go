package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/shared"
	"github.com/minimart/storefront/internal/infrastructure/config"
	"github.com/minimart/storefront/internal/infrastructure/logger"
)

type call struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []call
}

func (o *recordingObserver) ObserveBackendCall(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call{method, route, status})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.BackendConfig{
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&config.BackendConfig{})
	assert.Error(t, err)

	_, err = NewClient(&config.BackendConfig{BaseURL: "localhost:5000"})
	assert.Error(t, err)

	c, err := NewClient(&config.BackendConfig{BaseURL: "http://localhost:5000", RateLimit: 10})
	require.NoError(t, err)
	assert.NotNil(t, c.limiter)
	assert.Equal(t, defaultUserAgent, c.userAgent)
}

func TestClient_Headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/add", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"productId":"p1","quantity":2}`, string(body))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-1")
	var out messageDTO
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/cart/add",
		Token:  "tok",
		Body:   cartItemRequest{ProductID: "p1", Quantity: 2},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Message)
}

func TestClient_AnonymousRequestHasNoAuthorization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "phone case", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[]`))
	})

	var out []productDTO
	err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/api/products/search",
		Query:  map[string][]string{"q": {"phone case"}},
	}, &out)
	require.NoError(t, err)
}

func TestClient_RetriesIdempotentReads(t *testing.T) {
	var hits atomic.Int32
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	}, WithObserver(obs))

	var out cartDTO
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/cart", Token: "tok"}, &out)

	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	require.Len(t, obs.calls, 3)
	assert.Equal(t, call{http.MethodGet, "/api/cart", http.StatusBadGateway}, obs.calls[0])
	assert.Equal(t, http.StatusOK, obs.calls[2].status)
}

func TestClient_DoesNotRetryMutations(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/cart/add",
		Token:  "tok",
		Body:   cartItemRequest{ProductID: "p1", Quantity: 1},
	}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.ErrorIs(t, err, shared.ErrUnavailable)
}

func TestClient_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusUnauthorized, `{"message":"Token is not valid"}`, shared.ErrUnauthorized, "Token is not valid"},
		{http.StatusForbidden, `{"error":"Admins only"}`, shared.ErrForbidden, "Admins only"},
		{http.StatusNotFound, `{"msg":"Product not found"}`, shared.ErrNotFound, "Product not found"},
		{http.StatusBadRequest, `{"message":"Insufficient stock"}`, shared.ErrInvalidInput, "Insufficient stock"},
		{http.StatusTeapot, `short and stout`, shared.ErrBackend, "short and stout"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/api/orders/1", Route: "/api/orders/:id"}, nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "/api/orders/:id", apiErr.Route)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.msg, shared.BackendMessage(err, "fallback"))
		})
	}
}

func TestClient_UnauthorizedIsDetected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/cart", Token: "stale"}, nil)

	assert.True(t, shared.IsUnauthorized(err))
	assert.Equal(t, "fallback", shared.BackendMessage(err, "fallback"))
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(&config.BackendConfig{BaseURL: url, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/products"}, nil)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.False(t, shared.IsUnauthorized(err))
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/cart"}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_DecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": "nope"}`))
	})

	var out cartDTO
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/cart"}, &out)
	assert.ErrorIs(t, err, shared.ErrBackend)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, http.StatusOK, decodeErr.Status)
	assert.Equal(t, "/api/cart", decodeErr.Route)
}

func TestParseErrorMessage(t *testing.T) {
	assert.Equal(t, "a", parseErrorMessage([]byte(`{"message":"a","error":"b"}`)))
	assert.Equal(t, "b", parseErrorMessage([]byte(`{"message":"","error":"b"}`)))
	assert.Equal(t, "c", parseErrorMessage([]byte(`{"msg":" c "}`)))
	assert.Equal(t, "", parseErrorMessage([]byte(`{"error":{"code":1}}`)))
	assert.Equal(t, "", parseErrorMessage([]byte(`<html>Bad Gateway</html>`)))
	assert.Equal(t, "", parseErrorMessage(nil))
}
