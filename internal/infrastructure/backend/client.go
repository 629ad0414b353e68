// Package backend talks to the store backend's REST API on behalf of
// visitors. Client handles transport concerns (bearer auth, retries, rate
// limiting, tracing and metrics); the adapters in this package implement the
// application ports on top of it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/minimart/storefront/internal/domain/shared"
	"github.com/minimart/storefront/internal/infrastructure/config"
	"github.com/minimart/storefront/internal/infrastructure/logger"
	"github.com/minimart/storefront/internal/infrastructure/telemetry"
)

const (
	defaultUserAgent = "MiniMart-Storefront/1.0"
	maxResponseBytes = 4 << 20
)

// Observer records backend calls. status is 0 when no response arrived.
type Observer interface {
	ObserveBackendCall(method, route string, status int, d time.Duration)
}

// RetryConfig configures retry behavior for idempotent requests.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// Client is the HTTP client for the store backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	retry      RetryConfig
	limiter    *rate.Limiter
	observer   Observer
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver records every call with o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger sets the fallback logger used when the request context carries
// none.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client from configuration.
func NewClient(cfg *config.BackendConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("backend configuration is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base URL must be absolute: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL:   base,
		userAgent: userAgent,
		retry: RetryConfig{
			MaxRetries: max(cfg.MaxRetries, 0),
			RetryDelay: cfg.RetryDelay,
			MaxDelay:   5 * time.Second,
			Multiplier: 2.0,
		},
		logger: zap.NewNop(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is one backend call.
type Request struct {
	Method string
	// Path is the escaped request path, e.g. "/api/products/64f1".
	Path string
	// Route is the path template used as span name and metric label, e.g.
	// "/api/products/:id". Defaults to Path.
	Route string
	Query url.Values
	// Token is sent as a bearer token when set.
	Token string
	Body  any
}

// Do executes req and decodes a successful JSON response into out (which may
// be nil). A non-2xx response returns an *APIError and a 2xx body that does
// not decode returns a *DecodeError. Only GET requests are retried.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	route := req.Route
	if route == "" {
		route = req.Path
	}

	u := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	ctx, span := telemetry.StartClientSpan(ctx, req.Method+" "+route,
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.HTTPRoute(route),
	)
	defer span.End()

	log := logger.FromContextOr(ctx, c.logger)

	attempts := 1
	if req.Method == http.MethodGet {
		attempts += c.retry.MaxRetries
	}

	var (
		status int
		body   []byte
		err    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				telemetry.RecordError(span, ctx.Err())
				return fmt.Errorf("%s %s: %w", req.Method, route, ctx.Err())
			case <-time.After(c.backoff(attempt)):
			}
			log.Debug("Retrying backend request",
				zap.String("route", route),
				zap.Int("attempt", attempt),
				zap.Int("status", status),
			)
		}

		status, body, err = c.roundTrip(ctx, req, u, payload, route)
		if !shouldRetry(status, err) {
			break
		}
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(status))

	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Backend request failed", zap.String("method", req.Method), zap.String("route", route), zap.Error(err))
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", req.Method, route, ctx.Err())
		}
		return fmt.Errorf("%w: %s %s: %v", shared.ErrUnavailable, req.Method, route, err)
	}

	if status < 200 || status >= 300 {
		apiErr := &APIError{
			StatusCode: status,
			Message:    parseErrorMessage(body),
			Method:     req.Method,
			Route:      route,
		}
		telemetry.RecordError(span, apiErr)
		log.Debug("Backend rejected request",
			zap.String("method", req.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		decodeErr := &DecodeError{Method: req.Method, Route: route, Status: status, Err: err}
		telemetry.RecordError(span, decodeErr)
		log.Warn("Undecodable backend response", zap.String("route", route), zap.Int("status", status), zap.Error(err))
		return decodeErr
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, u *url.URL, payload []byte, route string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	c.setHeaders(ctx, httpReq, req.Token, payload != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Method, route, 0, time.Since(start))
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(req.Method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, token string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req.Header.Set("X-Request-ID", requestID)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) observe(method, route string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(method, route, status, d)
	}
}

// backoff calculates the delay before the given retry attempt.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.retry.RetryDelay) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	if delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	// ±25% jitter
	jitter := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

// shouldRetry retries transport errors, 5xx and 429.
func shouldRetry(status int, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return status >= 500 || status == http.StatusTooManyRequests
}

// escape escapes one path segment.
func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
