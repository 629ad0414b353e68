package session

import (
	"context"
	"errors"
	"time"

	"github.com/minimart/storefront/internal/domain/account"
)

// ErrRecordNotFound is returned by repositories when no record is stored
// under the requested key.
var ErrRecordNotFound = errors.New("session record not found")

// Record is the persisted form of a session.
type Record struct {
	Token    string           `json:"token"`
	Identity account.Identity `json:"identity"`
}

// Repository persists session records so a visitor's login survives a
// restart of the storefront process.
type Repository interface {
	// Save stores rec under key. A zero ttl means no expiry.
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	// Load returns the record stored under key, or ErrRecordNotFound.
	Load(ctx context.Context, key string) (Record, error)
	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// TokenInspector decides locally whether a token is already known to be
// expired, without asking the backend.
type TokenInspector interface {
	Expired(token string) bool
}
