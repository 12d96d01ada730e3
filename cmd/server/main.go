// Package main implements the smartmark daemon, which stores the browser
// extension's bookmarks, enriches them with an LLM in the background and
// mirrors changes to the remote account service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information set via ldflags
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smartmark",
		Short:         "Bookmark daemon with AI enrichment",
		Long:          `smartmark serves the message API used by the SmartMark browser extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a config file (default: ./config.yaml if present)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "smartmark %s\n", version)
			_, _ = fmt.Fprintf(out, "commit: %s\n", commit)
			_, _ = fmt.Fprintf(out, "built: %s\n", buildDate)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
