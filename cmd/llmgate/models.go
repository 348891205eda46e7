package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/llmgate/adapters/snapshot"
	"github.com/artpar/llmgate/app"
	"github.com/artpar/llmgate/config"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the model registry",
	Long: `Manage the model registry snapshot.

Examples:
  llmgate models list
  llmgate models register local-llama --version=3 --alias=llama
  llmgate models resolve llama`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered models",
	RunE:  runModelsList,
}

var modelsRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register or update a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsRegister,
}

var modelsResolveCmd = &cobra.Command{
	Use:   "resolve <name-or-alias>",
	Short: "Resolve a model by name or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsResolve,
}

var (
	modelVersion string
	modelAlias   string
)

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsRegisterCmd)
	modelsCmd.AddCommand(modelsResolveCmd)

	modelsRegisterCmd.Flags().StringVar(&modelVersion, "version", "", "model version")
	modelsRegisterCmd.Flags().StringVar(&modelAlias, "alias", "", "model alias (defaults to name)")
}

func openRegistry() (*app.RegistryService, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	reg := app.NewRegistryService(snapshot.NewFileStore(cfg.Registry.SnapshotPath))
	if err := reg.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return reg, nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}

	entries := reg.List()
	if len(entries) == 0 {
		fmt.Println("No models registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tALIAS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Version, e.Alias)
	}
	w.Flush()
	return nil
}

func runModelsRegister(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}

	if err := reg.Register(args[0], modelVersion, modelAlias); err != nil {
		return fmt.Errorf("register model: %w", err)
	}
	if err := reg.Save(context.Background()); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}

	entry, _ := reg.Resolve(args[0])
	fmt.Printf("Registered %s (version=%s alias=%s)\n", entry.Name, entry.Version, entry.Alias)
	return nil
}

func runModelsResolve(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}

	entry, ok := reg.Resolve(args[0])
	if !ok {
		return fmt.Errorf("no model registered as %q", args[0])
	}
	fmt.Printf("%s (version=%s alias=%s)\n", entry.Name, entry.Version, entry.Alias)
	return nil
}
