package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// KeySize is the required length of EncryptedStore key material (AES-256).
const KeySize = 32

// EncryptedStore seals every blob of an inner Store with AES-256-GCM.
//
// Stored layout is nonce || ciphertext || tag. The entry key is bound as
// additional authenticated data, so a blob copied under another key fails
// to open. An empty value is stored as an empty blob without sealing; this
// is what a secure wipe writes, and it must not leave ciphertext behind.
//
// Only values are encrypted. Key names are passed to the inner store as
// plaintext and are readable at rest, so keys must not carry sensitive data.
type EncryptedStore struct {
	inner Store
	aead  cipher.AEAD
	rand  io.Reader
}

// NewEncryptedStore wraps inner with encryption under key.
func NewEncryptedStore(inner Store, key []byte) (*EncryptedStore, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("store: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("store: init gcm: %w", err)
	}
	return &EncryptedStore{inner: inner, aead: aead, rand: rand.Reader}, nil
}

// Name returns the inner store's name.
func (s *EncryptedStore) Name() string {
	return s.inner.Name()
}

// Get opens the blob stored under key. A blob that fails authentication
// returns an error matching ErrCorrupt.
func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(sealed) == 0 {
		return []byte{}, true, nil
	}

	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, true, fmt.Errorf("%w: %s: blob too short", ErrCorrupt, key)
	}
	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(key))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if plain == nil {
		plain = []byte{}
	}
	return plain, true, nil
}

// Set seals value and stores it under key.
func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) == 0 {
		return s.inner.Set(ctx, key, []byte{})
	}

	nonceSize := s.aead.NonceSize()
	out := make([]byte, nonceSize, nonceSize+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(s.rand, out); err != nil {
		return fmt.Errorf("store: generate nonce: %w", err)
	}
	out = s.aead.Seal(out, out[:nonceSize], value, []byte(key))
	return s.inner.Set(ctx, key, out)
}

// Delete removes key from the inner store.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Keys returns the inner store's keys, which are stored in plaintext.
func (s *EncryptedStore) Keys(ctx context.Context) ([]string, error) {
	return s.inner.Keys(ctx)
}

// Clear clears the inner store.
func (s *EncryptedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Ping delegates to the inner store when it supports pinging.
func (s *EncryptedStore) Ping(ctx context.Context) error {
	if p, ok := s.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the inner store.
func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

// Ensure EncryptedStore implements Store and Pinger
var (
	_ Store  = (*EncryptedStore)(nil)
	_ Pinger = (*EncryptedStore)(nil)
)
