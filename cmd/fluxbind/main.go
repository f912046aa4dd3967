package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluxbind",
		Short: "Reactive store binding for Go",
		Long: `fluxbind keeps component subscriptions in exact sync with the
store reads their builders actually perform.

This CLI hosts the demo dashboard: a small server whose state is
derived from live stores through the binding layer, with rebuilds
streamed to websocket clients and build metrics on /metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
