package main

import (
	"fmt"

	"github.com/artpar/llmgate/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		fmt.Println("Configuration valid")
		fmt.Printf("  Backend:       %s\n", cfg.Backend.Kind)
		fmt.Printf("  Default model: %s\n", cfg.Backend.DefaultModel)
		if cfg.Backend.FallbackModel != "" {
			fmt.Printf("  Fallback:      %s (p=%.2f)\n", cfg.Backend.FallbackModel, cfg.Backend.FallbackProbability)
		}
		fmt.Printf("  Database:      %s\n", cfg.Database.DSN)
		fmt.Printf("  Models:        %d\n", len(cfg.Models))
		fmt.Printf("  Client policies: %d\n", len(cfg.Policy.Clients))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
