package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/cache"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitMiss  = 2
	exitFull  = 3
)

// errMiss is returned by read when the key is absent or expired.
var errMiss = errors.New("cache miss")

// rootFlags holds the persistent flags.
type rootFlags struct {
	config string
}

// newRootCmd builds the command tree. Every subcommand writes to the
// command's configured output.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "tiercache",
		Short: "Tiered TTL cache with an encrypted tier",
		Long: `tiercache stores string values under a TTL chosen by category.

Entries live in a standard tier or an encrypted secure tier, both persisted
to SQLite. All entries share one byte budget; expired entries are removed
on read and by the sweeper.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "",
		"config file (default $"+configEnv+" or built-in defaults)")

	rootCmd.AddCommand(
		newWriteCmd(flags),
		newReadCmd(flags),
		newRemoveCmd(flags),
		newClearCmd(flags),
		newSweepCmd(flags),
		newSweeperCmd(flags),
		newStatsCmd(flags),
		newHealthCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errMiss) {
		fmt.Fprintf(stderr, "tiercache: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errMiss):
		return exitMiss
	case errors.Is(err, cache.ErrCacheFull):
		return exitFull
	default:
		return exitError
	}
}
