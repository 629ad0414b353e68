package storage

import (
	"context"
	"errors"
	"time"

	adminapp "github.com/minimart/storefront/internal/application/admin"
)

var _ adminapp.ImageStorage = (*StubImageStorage)(nil)

// StubImageStorage hands out fake upload URLs when no object store is
// configured.
type StubImageStorage struct {
	BaseURL string
}

// NewStubImageStorage creates a StubImageStorage
func NewStubImageStorage() *StubImageStorage {
	return &StubImageStorage{BaseURL: "https://storage.example.com"}
}

// GenerateUploadURL returns a non-functional upload URL for storageKey.
func (s *StubImageStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.UTC().Format(time.RFC3339), expiresAt, nil
}

// PublicURL returns the stub download URL of storageKey.
func (s *StubImageStorage) PublicURL(storageKey string) string {
	return s.BaseURL + "/" + storageKey
}
