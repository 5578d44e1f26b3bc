package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/tiercache/observe"
)

// SweepResult summarizes one eviction sweep.
type SweepResult struct {
	Scanned   int
	Expired   int
	Malformed int
	Freed     int64 // bytes removed
	Size      int64 // size counter after the sweep's recompute
}

func (r *SweepResult) add(o SweepResult) {
	r.Scanned += o.Scanned
	r.Expired += o.Expired
	r.Malformed += o.Malformed
	r.Freed += o.Freed
}

// Sweep removes expired and malformed entries from both tiers, then
// recomputes the size counter. Keys are listed without the cache lock and
// handled in batches, each under one lock acquisition; every candidate is
// re-read before removal. Concurrent calls share one sweep.
func (c *TieredCache) Sweep(ctx context.Context) (SweepResult, error) {
	if c.closed.Load() {
		return SweepResult{}, ErrClosed
	}
	v, err, _ := c.sweeps.Do("sweep", func() (any, error) {
		var res SweepResult
		err := c.mw.Run(ctx, observe.OpMeta{Op: "sweep"}, func(ctx context.Context) (string, error) {
			var err error
			res, err = c.sweepBatched(ctx)
			return resultOf(err), err
		})
		return res, err
	})
	res, _ := v.(SweepResult)
	return res, err
}

func (c *TieredCache) sweepBatched(ctx context.Context) (SweepResult, error) {
	var total SweepResult
	for _, tier := range []Tier{Standard, Secure} {
		keys, err := c.tiers[tier].Keys(ctx)
		if err != nil {
			return total, storageError("sweep keys", err)
		}
		for start := 0; start < len(keys); start += c.opts.sweepBatch {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			end := min(start+c.opts.sweepBatch, len(keys))
			res, err := c.sweepBatch(ctx, tier, keys[start:end])
			total.add(res)
			if err != nil {
				return total, storageError("sweep", err)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	size, err := c.recomputeLocked(ctx)
	if err != nil {
		return total, storageError("recompute", err)
	}
	total.Size = size
	return total, nil
}

func (c *TieredCache) sweepBatch(ctx context.Context, tier Tier, keys []string) (SweepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res SweepResult
	now := c.opts.clock.Now()
	for _, k := range keys {
		if err := c.sweepKeyLocked(ctx, tier, k, now, &res); err != nil {
			c.recordEvictions(ctx, tier, res)
			return res, err
		}
	}
	c.recordEvictions(ctx, tier, res)
	return res, nil
}

// sweepAllLocked is the inline sweep run by an overflowing write. The
// caller already holds the lock.
func (c *TieredCache) sweepAllLocked(ctx context.Context) (SweepResult, error) {
	var total SweepResult
	now := c.opts.clock.Now()
	for _, tier := range []Tier{Standard, Secure} {
		keys, err := c.tiers[tier].Keys(ctx)
		if err != nil {
			return total, storageError("sweep keys", err)
		}
		var res SweepResult
		for _, k := range keys {
			if err = c.sweepKeyLocked(ctx, tier, k, now, &res); err != nil {
				break
			}
		}
		c.recordEvictions(ctx, tier, res)
		total.add(res)
		if err != nil {
			return total, storageError("sweep", err)
		}
	}

	size, err := c.recomputeLocked(ctx)
	if err != nil {
		return total, storageError("recompute", err)
	}
	total.Size = size
	return total, nil
}

// sweepKeyLocked removes key if it is expired or malformed at now.
func (c *TieredCache) sweepKeyLocked(ctx context.Context, tier Tier, key string, now time.Time, res *SweepResult) error {
	s, found, err := c.inspect(ctx, c.tiers[tier], key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	res.Scanned++

	expired := false
	switch {
	case !s.decoded:
	case !s.rec.valid(now):
		expired = true
	default:
		return nil
	}

	if err := c.removeLocked(ctx, tier, key, s.size); err != nil {
		return err
	}
	res.Freed += s.size
	c.stats.evictions.Add(1)
	if expired {
		res.Expired++
		c.stats.expirations.Add(1)
	} else {
		res.Malformed++
	}
	return nil
}

func (c *TieredCache) recordEvictions(ctx context.Context, tier Tier, res SweepResult) {
	m := c.mw.Metrics()
	m.RecordEvictions(ctx, tier.String(), "expired", res.Expired)
	m.RecordEvictions(ctx, tier.String(), "malformed", res.Malformed)
}

// Start runs Sweep every sweep interval until ctx is done or Close is
// called. Calling Start again has no effect.
func (c *TieredCache) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		if c.closed.Load() {
			return
		}
		c.started.Store(true)
		go c.sweepLoop(ctx)
	})
}

func (c *TieredCache) sweepLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			res, err := c.Sweep(ctx)
			if err != nil {
				c.mw.Logger().Warn(ctx, "background sweep failed", observe.F("error", err))
				continue
			}
			c.mw.Logger().Info(ctx, "background sweep completed",
				observe.F("scanned", res.Scanned),
				observe.F("expired", res.Expired),
				observe.F("malformed", res.Malformed),
				observe.F("freed_bytes", res.Freed),
				observe.F("size_bytes", res.Size),
			)
		}
	}
}

// Close stops the background sweeper and waits for it to exit. Further
// operations fail with ErrClosed. Close is idempotent.
func (c *TieredCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Blocks a later Start from launching the loop.
	c.startOnce.Do(func() {})
	close(c.stop)
	if c.started.Load() {
		<-c.done
	}
	if c.sizeReg != nil {
		return c.sizeReg.Unregister()
	}
	return nil
}
