package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/tiercache/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// recordingStore logs every mutating call that reaches the wrapped store.
type recordingStore struct {
	store.Store
	mu    sync.Mutex
	calls []string
}

func (r *recordingStore) record(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recordingStore) Set(ctx context.Context, key string, value []byte) error {
	r.record("set %s %d", key, len(value))
	return r.Store.Set(ctx, key, value)
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	r.record("delete %s", key)
	return r.Store.Delete(ctx, key)
}

func (r *recordingStore) Clear(ctx context.Context) error {
	r.record("clear")
	return r.Store.Clear(ctx)
}

func (r *recordingStore) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingStore) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// failingStore returns the configured errors instead of delegating.
type failingStore struct {
	store.Store
	getErr, setErr, deleteErr, keysErr, clearErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, key)
}

func (f *failingStore) Keys(ctx context.Context) ([]string, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.Store.Keys(ctx)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Store.Clear(ctx)
}

var testKey = bytes.Repeat([]byte{0x42}, store.KeySize)

// harness is a cache over memory stores with an encrypted, recorded secure
// tier and a fake clock.
type harness struct {
	c         *TieredCache
	clock     *fakeClock
	standard  *store.MemoryStore
	secureRaw *store.MemoryStore
	secure    *recordingStore
}

func newHarness(t testing.TB, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:     newFakeClock(),
		standard:  store.NewMemoryStore("standard"),
		secureRaw: store.NewMemoryStore("secure"),
	}
	enc, err := store.NewEncryptedStore(h.secureRaw, testKey)
	if err != nil {
		t.Fatalf("NewEncryptedStore() error = %v", err)
	}
	h.secure = &recordingStore{Store: enc}

	opts = append([]Option{WithClock(h.clock)}, opts...)
	h.c, err = New(context.Background(), h.standard, h.secure, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = h.c.Close() })
	return h
}

// recordSize is the encoded size of value written at the harness clock's
// current time under category.
func (h *harness) recordSize(t testing.TB, value string, category Category) int64 {
	t.Helper()
	b, err := encodeRecord(value, h.clock.Now(), h.c.opts.policy.TTLFor(category))
	if err != nil {
		t.Fatal(err)
	}
	return int64(len(b))
}

// valueForSize returns a value whose record encodes to exactly n bytes.
func (h *harness) valueForSize(t testing.TB, n int64, category Category) string {
	t.Helper()
	overhead := h.recordSize(t, "", category)
	if n < overhead {
		t.Fatalf("record size %d below overhead %d", n, overhead)
	}
	return strings.Repeat("a", int(n-overhead))
}

func (h *harness) assertAccounting(t testing.TB) {
	t.Helper()
	got := h.c.Size()
	want, err := h.c.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if got != want {
		t.Fatalf("Size() = %d, recomputed %d", got, want)
	}
}
