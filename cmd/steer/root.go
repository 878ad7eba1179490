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
	Use:   "steer",
	Short: "steer-sdk - a capability-aware multi-provider LLM client",
	Long: `steer is the CLI for steer-sdk, a Go client library that normalizes
chat completions across OpenAI, Anthropic, and xAI behind one capability-
driven API, with retrying, circuit-breaking, and streaming reconnect
built in.

For more information, visit: https://github.com/steer-sdk/core`,
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
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
