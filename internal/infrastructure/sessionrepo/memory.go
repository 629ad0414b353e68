// Package sessionrepo persists visitor sessions for the storefront.
package sessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/minimart/storefront/internal/application/session"
)

// InMemoryRepository keeps session records in process memory.
// WARNING: records are lost on restart and not shared between instances.
type InMemoryRepository struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec       session.Record
	expiresAt time.Time // zero means no expiry
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Save stores rec under key.
func (r *InMemoryRepository) Save(_ context.Context, key string, rec session.Record, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry{rec: rec}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.records[key] = entry
	return nil
}

// Load returns the record under key, dropping it if it has expired.
func (r *InMemoryRepository) Load(_ context.Context, key string) (session.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.records[key]
	if !ok {
		return session.Record{}, session.ErrRecordNotFound
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.records, key)
		return session.Record{}, session.ErrRecordNotFound
	}
	return entry.rec, nil
}

// Delete removes the record under key.
func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

// Len returns the number of stored records, expired ones included.
func (r *InMemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Ensure InMemoryRepository implements session.Repository
var _ session.Repository = (*InMemoryRepository)(nil)
