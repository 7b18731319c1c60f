package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerline/ledgerline/internal/alerts"
	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/dedup"
	"github.com/ledgerline/ledgerline/internal/importer"
	"github.com/ledgerline/ledgerline/internal/linker"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/ofx"
	"github.com/ledgerline/ledgerline/internal/plaid"
	"github.com/ledgerline/ledgerline/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import transactions from a file or from Plaid",
		Long: `Import transactions into the local database.

With a file argument, the format is chosen by extension: .csv for
bank CSV exports, .ofx or .qfx for OFX/QFX downloads. Without a file
argument, transactions are fetched from Plaid using the credentials
in your config.

Duplicates are screened out before anything is saved, and every new
transaction is checked against your alert settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("start-date", "", "start date for Plaid fetch (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "end date for Plaid fetch (YYYY-MM-DD)")
	cmd.Flags().Int("days", 30, "fetch the last N days when no dates are given")
	cmd.Flags().Bool("list-accounts", false, "list linked Plaid accounts and exit")
	cmd.Flags().Bool("dry-run", false, "parse and dedupe without saving anything")

	_ = viper.BindPFlag("import.days", cmd.Flags().Lookup("days"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	listAccounts, _ := cmd.Flags().GetBool("list-accounts")
	if listAccounts {
		return runListAccounts(ctx)
	}

	var (
		candidates []model.Transaction
		err        error
	)

	if len(args) == 1 {
		candidates, err = parseImportFile(ctx, args[0])
	} else {
		candidates, err = fetchFromPlaid(ctx, cmd)
	}
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		fmt.Println(cli.FormatInfo("no transactions found"))
		return nil
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return reportDryRun(ctx, candidates)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	result, err := importer.NewImporter(store).Import(ctx, candidates, func(_ int) {
		_ = bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d transactions (%d duplicates skipped)",
		result.Imported, result.Stats.Duplicates)))

	evaluateAlerts(ctx, store, result.Transactions)
	suggestAutoLink(ctx, store)

	return nil
}

func parseImportFile(ctx context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path) // #nosec G304 -- user-supplied import path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.ParseCSV(f)
	case ".ofx", ".qfx":
		return ofx.NewParser().ParseFile(ctx, f)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (expected .csv, .ofx, or .qfx)", path)
	}
}

func fetchFromPlaid(ctx context.Context, cmd *cobra.Command) ([]model.Transaction, error) {
	client, err := plaid.NewClient(config.LoadPlaidConfig())
	if err != nil {
		return nil, err
	}

	start, end, err := resolveDateRange(cmd)
	if err != nil {
		return nil, err
	}

	fmt.Println(cli.FormatInfo(fmt.Sprintf("fetching transactions from %s to %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))))

	return client.GetTransactions(ctx, start, end)
}

func resolveDateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")

	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
		end = parsed
	}

	if startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
		return start, end, nil
	}

	days := viper.GetInt("import.days")
	if days <= 0 {
		days = 30
	}
	return end.AddDate(0, 0, -days), end, nil
}

func runListAccounts(ctx context.Context) error {
	client, err := plaid.NewClient(config.LoadPlaidConfig())
	if err != nil {
		return err
	}

	accounts, err := client.GetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	fmt.Println(cli.FormatTitle("Linked Accounts"))
	for _, account := range accounts {
		fmt.Printf("  %s\n", account)
	}
	return nil
}

func reportDryRun(ctx context.Context, candidates []model.Transaction) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results := dedup.NewDetector(store).CheckBatch(ctx, candidates)
	stats := dedup.Summarize(results)

	fmt.Println(cli.FormatInfo(fmt.Sprintf("dry run: %d transactions parsed, %d new, %d duplicates",
		stats.Total, stats.New, stats.Duplicates)))

	for i, result := range results {
		if !result.IsDuplicate {
			continue
		}
		fmt.Printf("  %s %s %s $%.2f (confidence %.0f%%)\n",
			cli.WarningIcon,
			candidates[i].Date.Format("2006-01-02"),
			candidates[i].Merchant,
			candidates[i].Amount,
			result.Confidence*100)
	}
	return nil
}

// evaluateAlerts runs alert detection over freshly imported transactions.
// Detection failures are logged, never fatal to the import.
func evaluateAlerts(ctx context.Context, store *storage.SQLiteStorage, txns []model.Transaction) {
	detector := alerts.NewDetector(store)
	for _, txn := range txns {
		detector.EvaluateTransaction(ctx, txn)
	}

	events, err := store.GetAlertEvents(ctx, true)
	if err != nil {
		return
	}
	if len(events) > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d unread alerts — run 'ledgerline alerts list --unread'", len(events))))
	}
}

func suggestAutoLink(ctx context.Context, store *storage.SQLiteStorage) {
	orchestrator := linker.NewOrchestrator(store, linker.NewEngine(store))
	if orchestrator.ShouldRunAutoLink(ctx) {
		fmt.Println(cli.FormatInfo("potential split charges detected — run 'ledgerline autolink'"))
	}
}
