package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmgate",
	Short: "Control-plane gateway for LLM backends with policy and usage accounting",
	Long: `LLMGate is a self-hosted gateway in front of LLM backends.

It authenticates callers, enforces per-client usage policy, selects a
backend model with optional fallback, and records every invocation in
a durable usage ledger.

Quick start:
  llmgate serve     # Start the gateway server

Management:
  llmgate models    # Manage the model registry
  llmgate usage     # Query the usage ledger
  llmgate token     # Mint a bearer token
  llmgate validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "llmgate.yaml", "config file path")
}
