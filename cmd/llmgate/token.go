package main

import (
	"fmt"
	"time"

	"github.com/artpar/llmgate/adapters/auth"
	"github.com/artpar/llmgate/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a bearer token for a client",
	Long: `Mint a signed bearer token for the given client identity.

The token is signed with auth.jwt_secret from the configuration, so it
is accepted by a server running with the same config.

Examples:
  llmgate token acme
  llmgate token acme --ttl=24h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

var tokenTTL time.Duration

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	token, err := auth.NewIssuer(cfg.Auth.JWTSecret).Issue(args[0], tokenTTL)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	fmt.Println(token)
	return nil
}
