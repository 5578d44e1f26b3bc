package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags "-X main.version=... -X main.gitCommit=... -X main.buildDate=...".
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func versionString() string {
	if version == "dev" {
		return "development version"
	}
	return version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tiercache version: %s\n", version)
			fmt.Fprintf(out, "  build date: %s\n", buildDate)
			fmt.Fprintf(out, "  git commit: %s\n", gitCommit)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
		},
	}
}
