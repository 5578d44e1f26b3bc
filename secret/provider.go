package secret

import (
	"context"
	"errors"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

var (
	// ErrUnknownProvider indicates a secretref names a provider the resolver does not hold.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrNotFound indicates a provider has no value for the reference.
	ErrNotFound = errors.New("secret: not found")
)
