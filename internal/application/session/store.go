// Package session owns a visitor's bearer token and the identity cached
// for it.
//
// The store is the only writer of the token. Ending a session (logout, or an
// invalidation after the backend rejected the token) runs the registered end
// hooks, which is how per-user state such as the cart is dropped at the
// session boundary.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/account"
)

const persistTimeout = 3 * time.Second

// Snapshot is what observers see after every change.
type Snapshot struct {
	Authenticated bool             `json:"authenticated"`
	Identity      account.Identity `json:"identity"`
}

// Store holds one session (user or admin) for one visitor.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Store struct {
	mu       sync.RWMutex
	token    string
	identity account.Identity

	key       string
	repo      Repository
	ttl       time.Duration
	inspector TokenInspector
	logger    *zap.Logger

	endHooks []func()
	subs     map[int]func(Snapshot)
	nextSub  int
}

// Option configures a Store.
type Option func(*Store)

// WithRepository persists the session under key with the given ttl.
func WithRepository(repo Repository, key string, ttl time.Duration) Option {
	return func(s *Store) {
		s.repo = repo
		s.key = key
		s.ttl = ttl
	}
}

// WithInspector lets the store drop tokens that are known to be expired.
func WithInspector(inspector TokenInspector) Option {
	return func(s *Store) {
		s.inspector = inspector
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an anonymous session.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session, if any. It does not run end hooks or
// notify subscribers.
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rec, err := s.repo.Load(ctx, s.key)
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Token == "" || s.isExpired(rec.Token) {
		return s.repo.Delete(ctx, s.key)
	}

	s.mu.Lock()
	s.token = rec.Token
	s.identity = rec.Identity
	s.mu.Unlock()
	return nil
}

// Token returns the current bearer token, or "" when anonymous. A token that
// is known to be expired ends the session and is not returned.
func (s *Store) Token() string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token != "" && s.isExpired(token) {
		s.logger.Info("Session token expired locally")
		s.Invalidate(context.Background(), token)
		return ""
	}
	return token
}

// Identity returns the cached identity. It is only trusted while a token is
// present, so an anonymous session always reports the zero identity.
func (s *Store) Identity() account.Identity {
	if s.Token() == "" {
		return account.Identity{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Authenticated reports whether a usable token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Snapshot returns the observable state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Authenticated: s.Authenticated(),
		Identity:      s.Identity(),
	}
}

// Login replaces the session with token and identity. Replacing a different
// user's token ends that user's session first.
func (s *Store) Login(ctx context.Context, token string, identity account.Identity) {
	if token == "" {
		s.Logout(ctx)
		return
	}

	s.mu.Lock()
	previous := s.token
	s.token = token
	s.identity = identity
	hooks := s.endHooksLocked(previous != "" && previous != token)
	s.mu.Unlock()

	s.persist(ctx, Record{Token: token, Identity: identity})
	runHooks(hooks)
	s.notify()
}

// SetIdentity refreshes the cached identity of the current session. It is
// ignored when anonymous.
func (s *Store) SetIdentity(ctx context.Context, identity account.Identity) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	rec := Record{Token: s.token, Identity: identity}
	s.mu.Unlock()

	s.persist(ctx, rec)
	s.notify()
}

// Logout clears the token and identity.
func (s *Store) Logout(ctx context.Context) {
	s.end(ctx, func(string) bool { return true })
}

// Invalidate clears the session only if token is still the current one, so
// a late rejection of an old token cannot end a newer session. It reports
// whether the session was cleared.
func (s *Store) Invalidate(ctx context.Context, token string) bool {
	return s.end(ctx, func(current string) bool { return current != "" && current == token })
}

// OnEnd registers fn to run every time the session ends.
func (s *Store) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endHooks = append(s.endHooks, fn)
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) end(ctx context.Context, match func(current string) bool) bool {
	s.mu.Lock()
	if !match(s.token) {
		s.mu.Unlock()
		return false
	}
	hadToken := s.token != ""
	s.token = ""
	s.identity = account.Identity{}
	hooks := s.endHooksLocked(true)
	s.mu.Unlock()

	if s.repo != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := s.repo.Delete(pctx, s.key); err != nil {
			s.logger.Warn("Failed to delete persisted session", zap.String("key", s.key), zap.Error(err))
		}
	}
	runHooks(hooks)
	if hadToken {
		s.notify()
	}
	return true
}

func (s *Store) endHooksLocked(ending bool) []func() {
	if !ending || len(s.endHooks) == 0 {
		return nil
	}
	hooks := make([]func(), len(s.endHooks))
	copy(hooks, s.endHooks)
	return hooks
}

func (s *Store) persist(ctx context.Context, rec Record) {
	if s.repo == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.repo.Save(pctx, s.key, rec, s.ttl); err != nil {
		s.logger.Warn("Failed to persist session", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Store) isExpired(token string) bool {
	return s.inspector != nil && s.inspector.Expired(token)
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.mu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}
