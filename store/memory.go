package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	name string

	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:    name,
		entries: make(map[string][]byte),
	}
}

// Name returns the store name.
func (s *MemoryStore) Name() string {
	return s.name
}

// Get returns a copy of the blob stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries[key] = clone(value)
	return nil
}

// Delete removes key. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.entries, key)
	return nil
}

// Keys returns a snapshot of the stored keys.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries = make(map[string][]byte)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = nil
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
