package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader_HitSkipsFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.c.Write(ctx, "weather:nyc", "sunny", Weather, false)

	l := NewLoader(h.c, nil)
	got, err := l.Load(ctx, "weather:nyc", Weather, false, func(context.Context) (string, error) {
		t.Fatal("fetch called on hit")
		return "", nil
	})
	if err != nil || got != "sunny" {
		t.Fatalf("Load() = %q, %v", got, err)
	}
}

func TestLoader_MissFetchesAndWritesBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := NewLoader(h.c, nil)

	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "cloudy", nil
	}
	for range 3 {
		got, err := l.Load(ctx, "weather:bos", Weather, true, fetch)
		if err != nil || got != "cloudy" {
			t.Fatalf("Load() = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
	if v, ok := h.c.Read(ctx, "weather:bos", true); !ok || v != "cloudy" {
		t.Fatal("value not written back to the secure tier")
	}
}

func TestLoader_FetchErrorNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := NewLoader(h.c, nil)
	boom := errors.New("upstream 503")

	if _, err := l.Load(ctx, "k", Weather, false, func(context.Context) (string, error) {
		return "", boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v", err)
	}
	if h.standard.Len() != 0 {
		t.Fatal("failed fetch was cached")
	}
}

func TestLoader_WriteBackFailureIgnored(t *testing.T) {
	h := newHarness(t, WithMaxSize(64))
	l := NewLoader(h.c, nil)

	big := strings.Repeat("x", 500)
	got, err := l.Load(context.Background(), "video:1", VideoContent, false, func(context.Context) (string, error) {
		return big, nil
	})
	if err != nil || got != big {
		t.Fatalf("Load() = %d bytes, %v", len(got), err)
	}
	if h.c.Stats().Rejected != 1 {
		t.Fatal("expected the write-back to be rejected")
	}
}

func TestLoader_ConcurrentMissesShareFetch(t *testing.T) {
	h := newHarness(t)
	l := NewLoader(h.c, nil)
	release := make(chan struct{})
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = l.Load(context.Background(), "stats:7", PlayerStats, false, func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "42 pts", nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch called %d times, want 1", n)
	}
	for i, r := range results {
		if r != "42 pts" {
			t.Fatalf("result %d = %q", i, r)
		}
	}
}

func TestLoader_LoadInputUsesKeyer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := NewLoader(h.c, nil)

	input := map[string]any{"player": 42, "week": 7}
	if _, err := l.LoadInput(ctx, PlayerStats, input, false, func(context.Context) (string, error) {
		return "line", nil
	}); err != nil {
		t.Fatal(err)
	}
	key, _ := NewDefaultKeyer().Key(PlayerStats, input)
	if v, ok := h.c.Read(ctx, key, false); !ok || v != "line" {
		t.Fatalf("value not stored under keyer key %q", key)
	}
}
