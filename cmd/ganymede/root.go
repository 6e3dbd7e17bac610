package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - multi-tenant API gateway",
	Long: `Ganymede is a multi-tenant API gateway that forwards requests through
chains of backend modules.

For every request it provides:
  - Correlation ids propagated to backends and back to the client
  - Per-hop timing with slow-call watchdog warnings
  - Trace headers recording each backend call and its latency
  - A module registry with static and hot-reloaded module lists`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
