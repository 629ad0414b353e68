package cart

import (
	"context"
	"time"

	"github.com/minimart/storefront/internal/domain/cart"
)

// Backend is the store backend's cart API. Every call carries the caller's
// bearer token explicitly.
type Backend interface {
	GetCart(ctx context.Context, token string) ([]cart.Line, error)
	AddItem(ctx context.Context, token, productID string, quantity int) (MutationReply, error)
	RemoveItem(ctx context.Context, token, productID string) (MutationReply, error)
	UpdateItem(ctx context.Context, token, productID string, quantity int) (MutationReply, error)
}

// MutationReply holds the fields of a mutation response the store consumes.
// ItemCount is nil when the backend did not report one.
type MutationReply struct {
	ItemCount *int
	Message   string
}

// SessionInvalidator clears a session whose token the backend rejected.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, token string) bool
}

// Recorder observes cart operations for metrics.
type Recorder interface {
	ObserveCartOperation(op, outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCartOperation(string, string, time.Duration) {}
