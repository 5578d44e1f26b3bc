package cache_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/store"
)

func newExampleCache(opts ...cache.Option) *cache.TieredCache {
	secure, err := store.NewEncryptedStore(store.NewMemoryStore("secure"), bytes.Repeat([]byte{7}, store.KeySize))
	if err != nil {
		panic(err)
	}
	c, err := cache.New(context.Background(), store.NewMemoryStore("standard"), secure, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func ExampleTieredCache() {
	c := newExampleCache()
	defer c.Close()
	ctx := context.Background()

	_ = c.Write(ctx, "stats:42", `{"pts":21.4}`, cache.PlayerStats, false)
	_ = c.Write(ctx, "trade:7", "accept", cache.TradeAnalysis, true)

	v, ok := c.Read(ctx, "stats:42", false)
	fmt.Println(v, ok)

	v, ok = c.Read(ctx, "trade:7", true)
	fmt.Println(v, ok)

	_, ok = c.Read(ctx, "trade:7", false)
	fmt.Println(ok)
	// Output:
	// {"pts":21.4} true
	// accept true
	// false
}

func ExampleTieredCache_Write_cacheFull() {
	c := newExampleCache(cache.WithMaxSize(64))
	defer c.Close()

	err := c.Write(context.Background(), "video:1", "a long transcript that will not fit", cache.VideoContent, false)
	fmt.Println(errors.Is(err, cache.ErrCacheFull))
	// Output:
	// true
}

func ExampleLoader() {
	c := newExampleCache()
	defer c.Close()
	l := cache.NewLoader(c, nil)
	ctx := context.Background()

	fetch := func(context.Context) (string, error) {
		fmt.Println("fetching")
		return "72F clear", nil
	}
	for range 2 {
		v, _ := l.Load(ctx, "weather:nyc", cache.Weather, false, fetch)
		fmt.Println(v)
	}
	// Output:
	// fetching
	// 72F clear
	// 72F clear
}

func ExampleDefaultKeyer() {
	key, _ := cache.NewDefaultKeyer().Key(cache.PlayerStats, map[string]any{"player": 42, "week": 7})
	fmt.Println(key)
	// Output:
	// player-stats:beb745f178258e48
}
