package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(category Category, input any) (string, error)
}

// DefaultKeyer derives keys of the form <category>:<hash>, where hash is
// the first 16 hex characters of SHA-256 over the JSON encoding of input.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key. encoding/json writes map keys
// in sorted order, so equal maps hash equally.
func (k *DefaultKeyer) Key(category Category, input any) (string, error) {
	canonical, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode key input: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return string(category) + ":" + hex.EncodeToString(sum[:8]), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
