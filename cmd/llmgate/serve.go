package main

import (
	"fmt"
	"os"

	"github.com/artpar/llmgate/bootstrap"
	"github.com/artpar/llmgate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the LLMGate server.

The server will:
  - Load configuration from llmgate.yaml (or --config)
  - Or load configuration from LLMGATE_* environment variables
  - Open the usage ledger database and run migrations
  - Load the model registry snapshot
  - Serve the gateway API with policy enforcement and usage accounting

Environment variables (for Docker deployments):
  LLMGATE_BACKEND_KIND     - Backend kind: simulated or ollama
  LLMGATE_BACKEND_URL      - Ollama base URL
  LLMGATE_JWT_SECRET       - Shared secret for bearer tokens
  LLMGATE_DATABASE_DSN     - Ledger database path (default: llmgate.db)
  LLMGATE_SERVER_PORT      - Server port (default: 8080)
  LLMGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  llmgate serve
  llmgate serve --config /etc/llmgate/config.yaml
  llmgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Hot reload only works with a config file on disk.
	if hasConfigFile && hotReload {
		holder, err := config.NewHolder(cfgFile, app.Logger)
		if err != nil {
			return fmt.Errorf("error setting up hot reload: %w", err)
		}
		defer holder.Stop()

		holder.OnChange(app.ApplyDynamic)
		if err := holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		holder.WatchSignals()
	}

	return app.Run()
}
