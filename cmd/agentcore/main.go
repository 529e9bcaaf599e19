// Package main provides the CLI entry point for agentcore, a personal
// assistant's agent orchestration core: session management, tool dispatch,
// permission gating, and a prefix-routed multi-agent turn loop, fronted by
// whatever channel (CLI, chat bridge, HTTP) a host chooses to wire in.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "agentcore",
		Short:        "agentcore - a personal assistant's agent orchestration core",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (default: $AGENTCORE_CONFIG or <workspace>/config.json)")

	root.AddCommand(buildServeCmd())
	root.AddCommand(buildCheckCmd())
	return root
}
