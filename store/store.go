package store

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: store is closed")

	// ErrCorrupt indicates a stored blob could not be decoded or decrypted.
	ErrCorrupt = errors.New("store: stored value is corrupt")

	// ErrInvalidKeySize indicates encryption key material of the wrong length.
	ErrInvalidKeySize = errors.New("store: encryption key must be 32 bytes")
)

// Store is a flat key/value namespace backing one cache tier.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: Get returns a slice the caller may keep; Set must not retain value.
// - Errors: Get reports absence with (nil, false, nil), never with an error.
// - Idempotence: Delete and Clear succeed when there is nothing to remove.
type Store interface {
	// Name identifies the store in logs and metrics.
	Name() string

	// Get returns the stored blob for key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Keys returns every key currently stored, in unspecified order.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Pinger is implemented by stores that can verify their backing medium.
type Pinger interface {
	Ping(ctx context.Context) error
}
