package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/artpar/llmgate/adapters/sqlite"
	"github.com/artpar/llmgate/config"
	"github.com/artpar/llmgate/domain/record"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Query the usage ledger",
	Long: `Query recorded LLM invocations from the usage ledger.

Examples:
  llmgate usage recent --limit=20
  llmgate usage model openai-gpt
  llmgate usage client acme`,
}

var usageRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent invocations",
	RunE:  runUsageRecent,
}

var usageModelCmd = &cobra.Command{
	Use:   "model <name>",
	Short: "Show invocations for one model",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageModel,
}

var usageClientCmd = &cobra.Command{
	Use:   "client <id>",
	Short: "Show invocations for one client",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageClient,
}

var usageLimit int

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.AddCommand(usageRecentCmd)
	usageCmd.AddCommand(usageModelCmd)
	usageCmd.AddCommand(usageClientCmd)

	usageRecentCmd.Flags().IntVar(&usageLimit, "limit", 20, "number of records to show")
}

func openLedger() (*sqlite.LedgerStore, func(), error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return sqlite.NewLedgerStore(db), func() { db.Close() }, nil
}

func runUsageRecent(cmd *cobra.Command, args []string) error {
	ledger, closeDB, err := openLedger()
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := ledger.Recent(context.Background(), usageLimit)
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	printRecords(records)
	return nil
}

func runUsageModel(cmd *cobra.Command, args []string) error {
	ledger, closeDB, err := openLedger()
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := ledger.ByModel(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	printRecords(records)
	return nil
}

func runUsageClient(cmd *cobra.Command, args []string) error {
	ledger, closeDB, err := openLedger()
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := ledger.ByClient(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	printRecords(records)
	return nil
}

func printRecords(records []record.Record) {
	if len(records) == 0 {
		fmt.Println("No records found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tCLIENT\tMODEL\tTOKENS\tLATENCY")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.3fs\n",
			r.ID,
			r.Timestamp.Format(time.RFC3339),
			r.ClientID,
			r.Model,
			r.Tokens,
			r.LatencySeconds,
		)
	}
	w.Flush()
	fmt.Printf("\n%d record(s)\n", len(records))
}
