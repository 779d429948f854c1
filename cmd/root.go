// Package cmd provides the kolmo CLI commands.
//
// Commands:
//   - serve: HTTP API server (fact memory + deck design)
//   - migrate: apply database schema migrations
//   - version: build information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kolmo",
	Short: "Kolmo - construction project memory service",
	Long: `Kolmo is the backend for the construction project portal.

It maintains a temporal fact memory extracted from project conversations
(decisions, budgets, schedules, change orders) with semantic search over
embeddings, and generates code-compliant deck structures with pricing
and permit drawings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point for the kolmo CLI.
func Execute() error {
	// Initialize logger once at entry point. DEBUG env enables debug level.
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return rootCmd.Execute()
}
