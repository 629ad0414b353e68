// Package cart keeps a visitor's cart in step with the store backend.
//
// The backend is authoritative. Every mutation is sent to the backend and
// then reconciled by re-fetching the whole cart; the mutation response is
// only used as a provisional item count until that fetch lands.
package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/cart"
	"github.com/minimart/storefront/internal/domain/shared"
)

// Operation names used for logging and metrics.
const (
	OpFetch  = "fetch"
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
)

// Snapshot is a point-in-time copy of the cart for rendering.
//
// Reconciled is false while ItemCount is a provisional value taken from a
// mutation response that no successful fetch has confirmed yet.
type Snapshot struct {
	Items      []cart.Line     `json:"items"`
	ItemCount  int             `json:"itemCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Busy       []string        `json:"busy,omitempty"`
	Reconciled bool            `json:"reconciled"`
}

// Store is the single owner of one visitor's cart state.
//
// Thread Safety: Safe for concurrent use. Backend calls are never made while
// holding the lock, so mutations of different products run concurrently and
// the last reconciling fetch to land defines the visible state.
type Store struct {
	backend  Backend
	sessions SessionInvalidator
	logger   *zap.Logger
	recorder Recorder

	mu         sync.RWMutex
	state      cart.State
	itemCount  int
	reconciled bool
	epoch      uint64 // bumped on every reset; fetches started in an older epoch are discarded
	busy       map[string]struct{}
	subs       map[int]func(Snapshot)
	nextSub    int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// NewStore creates an empty cart. sessions may be nil, in which case a
// rejected token only resets the cart.
func NewStore(backend Backend, sessions SessionInvalidator, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		sessions:   sessions,
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
		state:      cart.Empty(),
		reconciled: true,
		busy:       make(map[string]struct{}),
		subs:       make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch replaces the local cart with the backend's and returns the item
// count. Without a token the cart is reset and no request is made. Failures
// never propagate: a rejected token ends the session and empties the cart,
// any other failure keeps the previous state, and both return 0.
func (s *Store) Fetch(ctx context.Context, token string) int {
	return s.fetch(ctx, token, s.currentEpoch())
}

// AddItem adds quantity units of productID. A quantity below 1 adds one unit.
func (s *Store) AddItem(ctx context.Context, token, productID string, quantity int) Result {
	if quantity < 1 {
		quantity = 1
	}
	return s.mutate(ctx, mutation{
		op:         OpAdd,
		token:      token,
		productID:  productID,
		noTokenMsg: MsgLoginToAdd,
		successMsg: MsgAdded,
		failureMsg: MsgAddFailed,
		call: func(ctx context.Context) (MutationReply, error) {
			return s.backend.AddItem(ctx, token, productID, quantity)
		},
	})
}

// RemoveItem removes productID from the cart. Removing a product that is not
// in the cart resolves through the same contract as any other removal.
func (s *Store) RemoveItem(ctx context.Context, token, productID string) Result {
	return s.mutate(ctx, mutation{
		op:         OpRemove,
		token:      token,
		productID:  productID,
		noTokenMsg: MsgLoginToModify,
		successMsg: MsgRemoved,
		failureMsg: MsgRemoveFailed,
		call: func(ctx context.Context) (MutationReply, error) {
			return s.backend.RemoveItem(ctx, token, productID)
		},
	})
}

// UpdateQuantity sets the quantity of productID. A quantity below 1 is a
// removal.
func (s *Store) UpdateQuantity(ctx context.Context, token, productID string, quantity int) Result {
	if quantity < 1 {
		return s.RemoveItem(ctx, token, productID)
	}
	return s.mutate(ctx, mutation{
		op:         OpUpdate,
		token:      token,
		productID:  productID,
		noTokenMsg: MsgLoginToModify,
		successMsg: MsgUpdated,
		failureMsg: MsgUpdateFailed,
		call: func(ctx context.Context) (MutationReply, error) {
			return s.backend.UpdateItem(ctx, token, productID, quantity)
		},
	})
}

// Clear empties the local cart without contacting the backend.
func (s *Store) Clear() {
	s.reset()
}

// ItemCount returns the displayed item count.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCount
}

// State returns the last reconciled cart.
func (s *Store) State() cart.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Busy reports whether a mutation of productID is in flight.
func (s *Store) Busy(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.busy[productID]
	return ok
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called with a fresh snapshot after every
// change. The returned function removes the subscription.
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

type mutation struct {
	op         string
	token      string
	productID  string
	noTokenMsg string
	successMsg string
	failureMsg string
	call       func(ctx context.Context) (MutationReply, error)
}

func (s *Store) mutate(ctx context.Context, m mutation) Result {
	start := time.Now()
	log := s.logger.With(zap.String("op", m.op), zap.String("product_id", m.productID))

	if m.token == "" {
		s.recorder.ObserveCartOperation(m.op, "unauthenticated", time.Since(start))
		return failed(m.noTokenMsg)
	}
	if m.productID == "" {
		s.recorder.ObserveCartOperation(m.op, "invalid", time.Since(start))
		return failed(MsgInvalidProduct)
	}
	if !s.acquire(m.productID) {
		s.recorder.ObserveCartOperation(m.op, "busy", time.Since(start))
		return busy()
	}
	defer s.release(m.productID)

	epoch := s.currentEpoch()
	reply, err := m.call(ctx)
	if err != nil {
		if shared.IsUnauthorized(err) {
			log.Info("Cart mutation rejected, session expired")
			s.endSession(ctx, m.token)
			s.recorder.ObserveCartOperation(m.op, "unauthorized", time.Since(start))
			return loginRequired(MsgSessionExpired)
		}
		log.Warn("Cart mutation failed", zap.Error(err))
		s.recorder.ObserveCartOperation(m.op, "error", time.Since(start))
		return failed(shared.BackendMessage(err, m.failureMsg))
	}

	if reply.ItemCount != nil {
		s.setProvisionalCount(epoch, *reply.ItemCount)
	}
	s.fetch(ctx, m.token, epoch)

	s.recorder.ObserveCartOperation(m.op, "ok", time.Since(start))
	if reply.Message != "" {
		return ok(reply.Message)
	}
	return ok(m.successMsg)
}

func (s *Store) fetch(ctx context.Context, token string, epoch uint64) int {
	start := time.Now()

	if token == "" {
		s.reset()
		s.recorder.ObserveCartOperation(OpFetch, "anonymous", time.Since(start))
		return 0
	}

	lines, err := s.backend.GetCart(ctx, token)
	if err != nil {
		if shared.IsUnauthorized(err) {
			s.logger.Info("Cart fetch rejected, session expired")
			s.endSession(ctx, token)
			s.recorder.ObserveCartOperation(OpFetch, "unauthorized", time.Since(start))
			return 0
		}
		s.logger.Warn("Failed to fetch cart", zap.Error(err))
		s.recorder.ObserveCartOperation(OpFetch, "error", time.Since(start))
		return 0
	}

	state := cart.NewState(lines)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("Discarding cart fetched before a session boundary")
		s.recorder.ObserveCartOperation(OpFetch, "discarded", time.Since(start))
		return 0
	}
	s.state = state
	s.itemCount = state.ItemCount()
	s.reconciled = true
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
	s.recorder.ObserveCartOperation(OpFetch, "ok", time.Since(start))
	return state.ItemCount()
}

// endSession drops the session that owns token. A rejection of a token that
// is no longer current leaves the newer session and its cart alone.
func (s *Store) endSession(ctx context.Context, token string) {
	if s.sessions != nil && !s.sessions.Invalidate(ctx, token) {
		return
	}
	s.reset()
}

func (s *Store) reset() {
	s.mu.Lock()
	s.epoch++
	s.state = cart.Empty()
	s.itemCount = 0
	s.reconciled = true
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

func (s *Store) setProvisionalCount(epoch uint64, n int) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.itemCount = n
	s.reconciled = n == s.state.ItemCount()
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

func (s *Store) acquire(productID string) bool {
	s.mu.Lock()
	if _, inFlight := s.busy[productID]; inFlight {
		s.mu.Unlock()
		return false
	}
	s.busy[productID] = struct{}{}
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return true
}

func (s *Store) release(productID string) {
	s.mu.Lock()
	delete(s.busy, productID)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Items:      s.state.Items(),
		ItemCount:  s.itemCount,
		Subtotal:   s.state.Subtotal(),
		Reconciled: s.reconciled,
	}
	if len(s.busy) > 0 {
		snap.Busy = make([]string, 0, len(s.busy))
		for id := range s.busy {
			snap.Busy = append(snap.Busy, id)
		}
		sort.Strings(snap.Busy)
	}
	return snap
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	if len(s.subs) == 0 {
		return nil
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
