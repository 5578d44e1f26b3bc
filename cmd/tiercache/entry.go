package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/cache"
)

// entryFlags holds the flags shared by the single-entry commands.
type entryFlags struct {
	secure   bool
	category string
}

func newWriteCmd(root *rootFlags) *cobra.Command {
	var opts entryFlags
	cmd := &cobra.Command{
		Use:   "write KEY [VALUE]",
		Short: "Store a value under KEY",
		Long: `Store VALUE under KEY with the TTL of --category.

When VALUE is omitted or "-" the value is read from stdin and stored
byte for byte, trailing newline included. A write that
would exceed the byte budget after sweeping expired entries fails with
exit code 3.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withSession(root, func(cmd *cobra.Command, args []string, s *session) error {
			value, err := entryValue(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return s.cache.Write(cmd.Context(), args[0], value, cache.Category(opts.category), opts.secure)
		}),
	}
	cmd.Flags().BoolVarP(&opts.secure, "secure", "s", false, "Write to the encrypted tier")
	cmd.Flags().StringVar(&opts.category, "category", "", "TTL category (player-stats, weather, trade-analysis, video-content)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func entryValue(stdin io.Reader, args []string) (string, error) {
	if len(args) == 2 && args[1] != "-" {
		return args[1], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read value from stdin: %w", err)
	}
	return string(b), nil
}

func newReadCmd(root *rootFlags) *cobra.Command {
	var opts entryFlags
	cmd := &cobra.Command{
		Use:   "read KEY",
		Short: "Print the value stored under KEY",
		Long:  `Print the value stored under KEY. A missing or expired entry exits with code 2.`,
		Args:  cobra.ExactArgs(1),
		RunE: withSession(root, func(cmd *cobra.Command, args []string, s *session) error {
			value, ok := s.cache.Read(cmd.Context(), args[0], opts.secure)
			if !ok {
				return errMiss
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		}),
	}
	cmd.Flags().BoolVarP(&opts.secure, "secure", "s", false, "Read from the encrypted tier")
	return cmd
}

func newRemoveCmd(root *rootFlags) *cobra.Command {
	var opts entryFlags
	cmd := &cobra.Command{
		Use:     "remove KEY",
		Aliases: []string{"rm"},
		Short:   "Remove the entry stored under KEY",
		Args:    cobra.ExactArgs(1),
		RunE: withSession(root, func(cmd *cobra.Command, args []string, s *session) error {
			return s.cache.Remove(cmd.Context(), args[0], opts.secure)
		}),
	}
	cmd.Flags().BoolVarP(&opts.secure, "secure", "s", false, "Remove from the encrypted tier")
	return cmd
}

func newClearCmd(root *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from both tiers",
		Args:  cobra.NoArgs,
		RunE: withSession(root, func(cmd *cobra.Command, _ []string, s *session) error {
			if !yes {
				return errors.New("clear removes every entry; pass --yes to confirm")
			}
			return s.cache.Clear(cmd.Context())
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the cache")
	return cmd
}
