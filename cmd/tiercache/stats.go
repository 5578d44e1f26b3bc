package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// statsReport is the printed form of cache.Stats.
type statsReport struct {
	Size        int64   `yaml:"size_bytes"`
	MaxSize     int64   `yaml:"max_bytes"`
	Usage       float64 `yaml:"usage_percent"`
	Hits        int64   `yaml:"hits"`
	Misses      int64   `yaml:"misses"`
	Writes      int64   `yaml:"writes"`
	Rejected    int64   `yaml:"rejected"`
	Evictions   int64   `yaml:"evictions"`
	Expirations int64   `yaml:"expirations"`
}

func newStatsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the cache size and budget",
		Long: `Print the cache size and budget. Counters cover this process only, so
outside the sweeper they reflect the single command run.`,
		Args: cobra.NoArgs,
		RunE: withSession(root, func(cmd *cobra.Command, _ []string, s *session) error {
			st := s.cache.Stats()
			return printYAML(cmd.OutOrStdout(), statsReport{
				Size:        st.Size,
				MaxSize:     st.MaxSize,
				Usage:       float64(st.Size) / float64(st.MaxSize) * 100,
				Hits:        st.Hits,
				Misses:      st.Misses,
				Writes:      st.Writes,
				Rejected:    st.Rejected,
				Evictions:   st.Evictions,
				Expirations: st.Expirations,
			})
		}),
	}
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
