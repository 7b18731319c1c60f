package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/report"
	"github.com/ledgerline/ledgerline/internal/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a cash flow report",
		Long: `Summarize income and expenses over a date range, broken down by
category, with budget progress for the current period. Defaults to
the current calendar month.`,
		RunE: runReport,
	}

	cmd.Flags().String("start-date", "", "report start date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "report end date (YYYY-MM-DD)")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	start, end, err := reportDateRange(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	generator := report.NewGenerator(store)

	summary, err := generator.CashFlow(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to generate cash flow: %w", err)
	}

	printCashFlow(summary)

	progress, err := generator.BudgetProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute budget progress: %w", err)
	}
	printBudgetProgress(progress)

	return nil
}

func reportDateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	if value, _ := cmd.Flags().GetString("start-date"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", value, err)
		}
		start = parsed
	}
	if value, _ := cmd.Flags().GetString("end-date"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", value, err)
		}
		end = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

func printCashFlow(summary *service.CashFlowSummary) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Cash Flow: %s - %s",
		cli.ChartIcon,
		summary.DateRange.Start.Format("Jan 2, 2006"),
		summary.DateRange.End.Format("Jan 2, 2006"))))

	fmt.Printf("  income:    $%.2f\n", summary.TotalIncome)
	fmt.Printf("  expenses:  $%.2f\n", summary.TotalExpenses)
	fmt.Printf("  net:       $%.2f\n", summary.NetCashFlow)
	fmt.Printf("  savings:   %.1f%%\n", report.SavingsRate(summary.TotalIncome, summary.TotalExpenses))

	if len(summary.ExpensesByCategory) > 0 {
		fmt.Println("\n  Expenses by category:")
		for name, cat := range summary.ExpensesByCategory {
			fmt.Printf("    %-20s $%9.2f (%d transactions)\n", name, cat.Amount, cat.Count)
		}
	}
}

func printBudgetProgress(progress []report.BudgetProgress) {
	if len(progress) == 0 {
		return
	}

	fmt.Println("\n  Budget progress:")
	for _, item := range progress {
		label := fmt.Sprintf("%.0f%%", item.Percentage)
		switch {
		case item.Percentage >= 100:
			label = cli.ErrorStyle.Render(label)
		case item.Percentage >= 80:
			label = cli.WarningStyle.Render(label)
		default:
			label = cli.SuccessStyle.Render(label)
		}
		fmt.Printf("    %-20s $%.2f of $%.2f  %s\n", item.Category, item.Spent, item.Budget.Amount, label)
	}
}
