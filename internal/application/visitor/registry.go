// Package visitor keeps the per-browser client state of every active
// visitor: the shopper session, the admin session and the cart.
package visitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/application/session"
)

const defaultIdleTimeout = 30 * time.Minute

// Visitor is the state owned by one browser.
type Visitor struct {
	ID      string
	Session *session.Store
	Admin   *session.Store
	Cart    *cart.Store

	lastSeen time.Time
}

// Gauge receives the number of live visitors.
type Gauge interface {
	SetActiveVisitors(n int)
}

// Registry maps visitor ids to visitors. Idle visitors are evicted from
// memory; their persisted sessions stay in the repository and are restored
// the next time the visitor shows up.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*Visitor

	cartBackend cart.Backend
	cartOpts    []cart.Option
	repo        session.Repository
	sessionTTL  time.Duration
	inspector   session.TokenInspector
	idle        time.Duration
	gauge       Gauge
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithRepository persists visitor sessions for ttl.
func WithRepository(repo session.Repository, ttl time.Duration) Option {
	return func(r *Registry) {
		r.repo = repo
		r.sessionTTL = ttl
	}
}

// WithInspector lets sessions drop locally expired tokens.
func WithInspector(inspector session.TokenInspector) Option {
	return func(r *Registry) {
		r.inspector = inspector
	}
}

// WithIdleTimeout sets how long an untouched visitor stays in memory.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithGauge reports the visitor count after every change.
func WithGauge(g Gauge) Option {
	return func(r *Registry) {
		r.gauge = g
	}
}

// WithCartOptions passes opts to every cart store.
func WithCartOptions(opts ...cart.Option) Option {
	return func(r *Registry) {
		r.cartOpts = append(r.cartOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty Registry whose carts talk to cartBackend.
func NewRegistry(cartBackend cart.Backend, opts ...Option) *Registry {
	r := &Registry{
		visitors:    make(map[string]*Visitor),
		cartBackend: cartBackend,
		idle:        defaultIdleTimeout,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the visitor with id, creating it (and restoring its persisted
// sessions) on first sight.
func (r *Registry) Get(ctx context.Context, id string) *Visitor {
	r.mu.Lock()
	if v, ok := r.visitors[id]; ok {
		v.lastSeen = r.now()
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()

	created := r.newVisitor(ctx, id)

	r.mu.Lock()
	if v, ok := r.visitors[id]; ok {
		// Lost a race with a concurrent first request.
		v.lastSeen = r.now()
		r.mu.Unlock()
		return v
	}
	created.lastSeen = r.now()
	r.visitors[id] = created
	n := len(r.visitors)
	r.mu.Unlock()

	r.report(n)
	return created
}

// Len returns the number of visitors in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Sweep evicts visitors idle since before now minus the idle timeout and
// returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idle)

	r.mu.Lock()
	evicted := 0
	for id, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, id)
			evicted++
		}
	}
	n := len(r.visitors)
	r.mu.Unlock()

	if evicted > 0 {
		r.logger.Debug("Evicted idle visitors", zap.Int("evicted", evicted), zap.Int("remaining", n))
		r.report(n)
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

func (r *Registry) newVisitor(ctx context.Context, id string) *Visitor {
	log := r.logger.With(zap.String("visitor_id", id))

	user := r.newSession(ctx, id+":user", log)
	admin := r.newSession(ctx, id+":admin", log)
	carts := cart.NewStore(r.cartBackend, user, append([]cart.Option{cart.WithLogger(log)}, r.cartOpts...)...)
	user.OnEnd(carts.Clear)

	return &Visitor{ID: id, Session: user, Admin: admin, Cart: carts}
}

func (r *Registry) newSession(ctx context.Context, key string, log *zap.Logger) *session.Store {
	opts := []session.Option{session.WithLogger(log)}
	if r.repo != nil {
		opts = append(opts, session.WithRepository(r.repo, key, r.sessionTTL))
	}
	if r.inspector != nil {
		opts = append(opts, session.WithInspector(r.inspector))
	}
	s := session.NewStore(opts...)
	if err := s.Restore(ctx); err != nil {
		log.Warn("Failed to restore session", zap.String("key", key), zap.Error(err))
	}
	return s
}

func (r *Registry) report(n int) {
	if r.gauge != nil {
		r.gauge.SetActiveVisitors(n)
	}
}
