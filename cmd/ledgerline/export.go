package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/report"
	"github.com/ledgerline/ledgerline/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a cash flow report to Google Sheets",
		Long: `Generate a cash flow summary for the given date range and write it to
a Google Sheets spreadsheet. Requires Google Sheets credentials in
your config or environment. Defaults to the current calendar month.`,
		RunE: runExport,
	}

	cmd.Flags().String("start-date", "", "report start date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "report end date (YYYY-MM-DD)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return err
	}

	start, end, err := reportDateRange(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := report.NewGenerator(store).CashFlow(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to generate cash flow: %w", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	started := time.Now()
	if err := writer.Write(ctx, summary); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("cash flow exported to Google Sheets in %s",
		time.Since(started).Round(time.Millisecond))))
	return nil
}
