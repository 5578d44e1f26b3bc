package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/observe"
)

// sweepReport is the printed form of cache.SweepResult.
type sweepReport struct {
	Scanned   int   `yaml:"scanned"`
	Expired   int   `yaml:"expired"`
	Malformed int   `yaml:"malformed"`
	Freed     int64 `yaml:"freed_bytes"`
	Size      int64 `yaml:"size_bytes"`
}

func newSweepCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable entries once",
		Args:  cobra.NoArgs,
		RunE: withSession(root, func(cmd *cobra.Command, _ []string, s *session) error {
			res, err := s.cache.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), sweepReport{
				Scanned:   res.Scanned,
				Expired:   res.Expired,
				Malformed: res.Malformed,
				Freed:     res.Freed,
				Size:      res.Size,
			})
		}),
	}
}

// sweeperFlags holds the flags for the sweeper command.
type sweeperFlags struct {
	metricsAddr string
}

func newSweeperCmd(root *rootFlags) *cobra.Command {
	var opts sweeperFlags
	cmd := &cobra.Command{
		Use:   "sweeper",
		Short: "Run the background sweeper until interrupted",
		Long: `Sweep once, then sweep every cache.sweep_interval until SIGINT or SIGTERM.

With --metrics-addr the process serves Prometheus metrics on /metrics; set
observe.metrics.exporter to prometheus for the cache metrics to appear.`,
		Args: cobra.NoArgs,
		RunE: withSession(root, func(cmd *cobra.Command, _ []string, s *session) error {
			ctx := cmd.Context()

			var srv *http.Server
			errc := make(chan error, 1)
			if opts.metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv = &http.Server{Addr: opts.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errc <- err
					}
				}()
				s.log.Info(ctx, "serving metrics", observe.F("addr", opts.metricsAddr))
			}

			if _, err := s.cache.Sweep(ctx); err != nil {
				s.log.Warn(ctx, "initial sweep failed", observe.F("error", err))
			}
			s.cache.Start(ctx)
			s.log.Info(ctx, "sweeper started", observe.F("interval", s.cfg.Cache.SweepInterval.String()))

			var err error
			select {
			case <-ctx.Done():
			case err = <-errc:
			}

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
			s.log.Info(ctx, "sweeper stopped")
			return err
		}),
	}
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}
