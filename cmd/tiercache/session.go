package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/config"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/secret"
	"github.com/jonwraymond/tiercache/store"
)

const configEnv = config.EnvConfigPath

// session is an opened cache with the resources backing it.
type session struct {
	cfg   *config.Config
	obs   observe.Observer
	log   observe.Logger
	db    *store.SQLiteDB
	cache *cache.TieredCache
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// openSession loads configuration and opens the cache it describes.
func openSession(ctx context.Context, configPath string) (_ *session, err error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	s := &session{cfg: cfg, obs: obs, log: obs.Logger()}
	defer func() {
		if err != nil {
			_ = s.Close(context.WithoutCancel(ctx))
		}
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}

	resolver, err := secret.NewDefaultResolver()
	if err != nil {
		return nil, err
	}
	defer resolver.Close()

	key, err := cfg.SecureKey(ctx, resolver)
	if err != nil {
		return nil, err
	}

	if cfg.Store.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	s.db, err = store.OpenSQLite(store.SQLiteConfig{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	standard, err := s.db.Store("standard")
	if err != nil {
		return nil, err
	}
	secureTable, err := s.db.Store("secure")
	if err != nil {
		return nil, err
	}
	secure, err := store.NewEncryptedStore(secureTable, key)
	if err != nil {
		return nil, err
	}

	s.cache, err = cache.New(ctx, standard, secure,
		cfg.CacheOptions(cache.WithMiddleware(mw), cache.WithMeter(obs.Meter()))...)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "cache opened",
		observe.F("path", cfg.Store.Path),
		observe.F("size", s.cache.Size()),
		observe.F("max_size", s.cache.MaxSize()))
	return s, nil
}

// Close releases the cache, the database and the telemetry providers.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.obs != nil {
		errs = append(errs, s.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// withSession adapts fn into a cobra RunE that opens a session first and
// closes it afterwards.
func withSession(flags *rootFlags, fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		s, err := openSession(ctx, flags.config)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args, s)
	}
}
