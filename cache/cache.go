package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	// ErrCacheFull indicates the byte budget is still exceeded after an
	// eviction sweep. Nothing was written.
	ErrCacheFull = errors.New("cache: size budget exceeded")

	// ErrCacheError indicates a storage or serialization fault. The
	// underlying cause is wrapped alongside it.
	ErrCacheError = errors.New("cache: storage error")

	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrClosed     = errors.New("cache: cache is closed")
)

// Tier selects one of the cache's two independent key namespaces.
type Tier int

const (
	// Standard entries are stored as plaintext records.
	Standard Tier = iota
	// Secure entries are encrypted at rest and wiped before deletion.
	Secure
)

// TierOf maps the secure flag used by the public operations to a Tier.
func TierOf(secure bool) Tier {
	if secure {
		return Secure
	}
	return Standard
}

func (t Tier) String() string {
	if t == Secure {
		return "secure"
	}
	return "standard"
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
