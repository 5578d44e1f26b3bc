package cache

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tiercache/observe"
)

// FetchFunc loads a value from the original data source.
type FetchFunc func(ctx context.Context) (string, error)

// Loader reads through a TieredCache: hits are served from the cache,
// misses are fetched and written back. Concurrent misses on one key share
// a single fetch.
type Loader struct {
	cache  *TieredCache
	keyer  Keyer
	flight singleflight.Group
}

// NewLoader creates a Loader. If keyer is nil, DefaultKeyer is used.
func NewLoader(c *TieredCache, keyer Keyer) *Loader {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Loader{cache: c, keyer: keyer}
}

// Load returns the cached value for key, or calls fetch on a miss and
// caches its result under category. Fetch errors are returned and never
// cached. A failed write-back is logged and the fetched value still
// returned.
func (l *Loader) Load(ctx context.Context, key string, category Category, secure bool, fetch FetchFunc) (string, error) {
	if v, ok := l.cache.Read(ctx, key, secure); ok {
		return v, nil
	}

	v, err, _ := l.flight.Do(TierOf(secure).String()+"\x00"+key, func() (any, error) {
		if v, ok := l.cache.Read(ctx, key, secure); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		if werr := l.cache.Write(ctx, key, v, category, secure); werr != nil {
			level := l.cache.mw.Logger().Error
			if errors.Is(werr, ErrCacheFull) {
				level = l.cache.mw.Logger().Warn
			}
			level(ctx, "cache write-back failed",
				observe.F("cache.tier", TierOf(secure).String()),
				observe.F("cache.category", string(category)),
				observe.F("error", werr),
			)
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// LoadInput is Load with the key derived from category and input by the
// Loader's Keyer.
func (l *Loader) LoadInput(ctx context.Context, category Category, input any, secure bool, fetch FetchFunc) (string, error) {
	key, err := l.keyer.Key(category, input)
	if err != nil {
		return "", err
	}
	return l.Load(ctx, key, category, secure, fetch)
}
