package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/store"
)

// TieredCache is a TTL cache over two stores, standard and secure, sharing
// one byte budget.
//
// Contract:
//   - Concurrency: safe for concurrent use. One mutex serializes every
//     sequence that changes a tier's key set or the size counter; plain
//     reads do not take it.
//   - Errors: Write, Remove and Clear return ErrCacheFull or ErrCacheError
//     (wrapping the cause). Read never errors; faults are logged misses.
//   - Ownership: the stores belong to the caller; Close does not close them.
type TieredCache struct {
	mu    sync.Mutex
	tiers [2]store.Store
	opts  options
	mw    *observe.Middleware

	size  atomic.Int64 // written only under mu
	stats counters

	sweeps singleflight.Group

	closed    atomic.Bool
	startOnce sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
	sizeReg   metric.Registration
}

type counters struct {
	hits, misses, writes, rejected, evictions, expirations atomic.Int64
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Size        int64
	MaxSize     int64
	Hits        int64
	Misses      int64
	Writes      int64
	Rejected    int64 // writes refused with ErrCacheFull
	Evictions   int64 // entries removed by sweeps and read-time purges
	Expirations int64 // the subset of Evictions that had expired
}

// New creates a TieredCache over the given stores. The size counter is
// derived from what the stores already hold.
func New(ctx context.Context, standard, secure store.Store, opts ...Option) (*TieredCache, error) {
	if standard == nil || secure == nil {
		return nil, errors.New("cache: both tier stores are required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.policy.Validate(); err != nil {
		return nil, err
	}
	if o.maxSize <= 0 {
		return nil, fmt.Errorf("cache: max size must be positive, got %d", o.maxSize)
	}
	if o.sweepBatch <= 0 {
		o.sweepBatch = DefaultSweepBatchSize
	}
	if o.sweepInterval <= 0 {
		o.sweepInterval = DefaultSweepInterval
	}
	if o.clock == nil {
		o.clock = SystemClock()
	}
	mw := o.mw
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}

	c := &TieredCache{
		tiers: [2]store.Store{standard, secure},
		opts:  o,
		mw:    mw,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	c.mu.Lock()
	_, err := c.recomputeLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: initial size: %w", ErrCacheError, err)
	}

	if o.meter != nil {
		reg, err := observe.ObserveSize(o.meter, c.Size)
		if err != nil {
			return nil, fmt.Errorf("cache: register size gauge: %w", err)
		}
		c.sizeReg = reg
	}
	return c, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCacheFull):
		return "full"
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrKeyTooLong):
		return "invalid"
	default:
		return "error"
	}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCacheError, op, err)
}

// Write stores value under key in the tier chosen by secure, with the TTL
// of category. If the write would exceed the budget an eviction sweep runs
// first; if the budget is still exceeded nothing is written and
// ErrCacheFull is returned.
func (c *TieredCache) Write(ctx context.Context, key, value string, category Category, secure bool) error {
	tier := TierOf(secure)
	meta := observe.OpMeta{Op: "write", Tier: tier.String(), Category: string(category)}
	return c.mw.Run(ctx, meta, func(ctx context.Context) (string, error) {
		err := c.write(ctx, tier, key, value, category)
		return resultOf(err), err
	})
}

func (c *TieredCache) write(ctx context.Context, tier Tier, key, value string, category Category) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	blob, err := encodeRecord(value, c.opts.clock.Now(), c.opts.policy.TTLFor(category))
	if err != nil {
		return storageError("encode", err)
	}
	size := int64(len(blob))
	st := c.tiers[tier]

	c.mu.Lock()
	defer c.mu.Unlock()

	prior, _, err := c.inspect(ctx, st, key)
	if err != nil {
		return storageError("read prior", err)
	}

	if c.size.Load()-prior.size+size > c.opts.maxSize {
		if _, err := c.sweepAllLocked(ctx); err != nil {
			return err
		}
		if prior, _, err = c.inspect(ctx, st, key); err != nil {
			return storageError("read prior", err)
		}
		if inUse := c.size.Load() - prior.size; inUse+size > c.opts.maxSize {
			c.stats.rejected.Add(1)
			return fmt.Errorf("%w: entry of %d bytes, %d of %d in use", ErrCacheFull, size, inUse, c.opts.maxSize)
		}
	}

	if err := st.Set(ctx, key, blob); err != nil {
		return storageError("set", err)
	}
	c.size.Add(size - prior.size)
	c.stats.writes.Add(1)
	return nil
}

// Read returns the value under key in the tier chosen by secure. Absent,
// expired and malformed entries are misses; the latter two are purged.
func (c *TieredCache) Read(ctx context.Context, key string, secure bool) (string, bool) {
	tier := TierOf(secure)
	var (
		value string
		hit   bool
	)
	_ = c.mw.Run(ctx, observe.OpMeta{Op: "read", Tier: tier.String()}, func(ctx context.Context) (string, error) {
		value, hit = c.read(ctx, tier, key)
		if hit {
			c.stats.hits.Add(1)
			return "hit", nil
		}
		c.stats.misses.Add(1)
		return "miss", nil
	})
	return value, hit
}

func (c *TieredCache) read(ctx context.Context, tier Tier, key string) (string, bool) {
	if c.closed.Load() || ValidateKey(key) != nil {
		return "", false
	}

	s, found, err := c.inspect(ctx, c.tiers[tier], key)
	if err != nil {
		c.mw.Logger().Warn(ctx, "cache read failed",
			observe.F("cache.tier", tier.String()), observe.F("error", err))
		return "", false
	}
	if !found {
		return "", false
	}
	if s.decoded && s.rec.valid(c.opts.clock.Now()) {
		return s.rec.Value, true
	}

	if err := c.purge(ctx, tier, key); err != nil {
		c.mw.Logger().Warn(ctx, "cache purge failed",
			observe.F("cache.tier", tier.String()), observe.F("error", err))
	}
	return "", false
}

// purge removes key if it is still expired or malformed once the lock is
// held. A concurrent rewrite in between is left alone.
func (c *TieredCache) purge(ctx context.Context, tier Tier, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res SweepResult
	if err := c.sweepKeyLocked(ctx, tier, key, c.opts.clock.Now(), &res); err != nil {
		return err
	}
	c.recordEvictions(ctx, tier, res)
	return nil
}

// Remove deletes key from the tier chosen by secure. Secure entries are
// overwritten with an empty value before deletion. Removing an absent key
// succeeds.
func (c *TieredCache) Remove(ctx context.Context, key string, secure bool) error {
	tier := TierOf(secure)
	return c.mw.Run(ctx, observe.OpMeta{Op: "remove", Tier: tier.String()}, func(ctx context.Context) (string, error) {
		err := c.remove(ctx, tier, key)
		return resultOf(err), err
	})
}

func (c *TieredCache) remove(ctx context.Context, tier Tier, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, found, err := c.inspect(ctx, c.tiers[tier], key)
	if err != nil {
		return storageError("read", err)
	}
	if !found {
		return nil
	}
	if err := c.removeLocked(ctx, tier, key, s.size); err != nil {
		return storageError("remove", err)
	}
	return nil
}

// removeLocked deletes key and subtracts size from the counter. In the
// secure tier the value is first overwritten with an empty one and that
// overwrite is persisted.
func (c *TieredCache) removeLocked(ctx context.Context, tier Tier, key string, size int64) error {
	st := c.tiers[tier]
	if tier == Secure {
		if err := st.Set(ctx, key, nil); err != nil {
			return err
		}
		// An empty secure value is zero bytes of record.
		c.size.Add(-size)
		size = 0
	}
	if err := st.Delete(ctx, key); err != nil {
		return err
	}
	c.size.Add(-size)
	return nil
}

// Clear empties both tiers. Every secure entry is overwritten with an
// empty value before the tier is cleared.
func (c *TieredCache) Clear(ctx context.Context) error {
	return c.mw.Run(ctx, observe.OpMeta{Op: "clear"}, func(ctx context.Context) (string, error) {
		err := c.clear(ctx)
		return resultOf(err), err
	})
}

func (c *TieredCache) clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.clearLocked(ctx); err != nil {
		// Leave the counter matching whatever survived.
		if _, rerr := c.recomputeLocked(ctx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return storageError("clear", err)
	}
	c.size.Store(0)
	return nil
}

func (c *TieredCache) clearLocked(ctx context.Context) error {
	if err := c.tiers[Standard].Clear(ctx); err != nil {
		return err
	}
	secure := c.tiers[Secure]
	keys, err := secure.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := secure.Set(ctx, k, nil); err != nil {
			return err
		}
	}
	return secure.Clear(ctx)
}

// Size returns the bytes of encoded records held across both tiers.
func (c *TieredCache) Size() int64 { return c.size.Load() }

// MaxSize returns the byte budget.
func (c *TieredCache) MaxSize() int64 { return c.opts.maxSize }

// Policy returns a copy of the TTL policy.
func (c *TieredCache) Policy() Policy { return c.opts.policy.Clone() }

// Recompute re-derives the size counter from the stores and returns it.
func (c *TieredCache) Recompute(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.recomputeLocked(ctx)
	if err != nil {
		return 0, storageError("recompute", err)
	}
	return n, nil
}

func (c *TieredCache) recomputeLocked(ctx context.Context) (int64, error) {
	var total int64
	for _, st := range c.tiers {
		keys, err := st.Keys(ctx)
		if err != nil {
			return 0, err
		}
		for _, k := range keys {
			s, found, err := c.inspect(ctx, st, k)
			if err != nil {
				return 0, err
			}
			if found {
				total += s.size
			}
		}
	}
	c.size.Store(total)
	return total, nil
}

// Stats returns a snapshot of the cache counters.
func (c *TieredCache) Stats() Stats {
	return Stats{
		Size:        c.size.Load(),
		MaxSize:     c.opts.maxSize,
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Writes:      c.stats.writes.Load(),
		Rejected:    c.stats.rejected.Load(),
		Evictions:   c.stats.evictions.Load(),
		Expirations: c.stats.expirations.Load(),
	}
}

// slot is what inspect learned about one stored key.
type slot struct {
	rec     record
	size    int64
	decoded bool
}

// inspect reads key from st. A blob that fails decryption counts as present
// with zero size and an undecoded record.
func (c *TieredCache) inspect(ctx context.Context, st store.Store, key string) (slot, bool, error) {
	b, found, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrCorrupt) {
		return slot{}, true, nil
	}
	if err != nil || !found {
		return slot{}, false, err
	}
	s := slot{size: int64(len(b))}
	if rec, err := decodeRecord(b); err == nil {
		s.rec, s.decoded = rec, true
	}
	return s, true, nil
}
