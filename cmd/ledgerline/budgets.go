package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/cli"
	"github.com/ledgerline/ledgerline/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage category budgets",
	}

	cmd.AddCommand(budgetsListCmd())
	cmd.AddCommand(budgetsAddCmd())
	cmd.AddCommand(budgetsDeleteCmd())

	return cmd
}

func budgetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			budgets, err := store.GetBudgets(ctx)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}

			if len(budgets) == 0 {
				fmt.Println(cli.FormatInfo("no budgets configured"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Budgets"))
			for _, budget := range budgets {
				category, err := store.GetCategoryByID(ctx, budget.CategoryID)
				name := fmt.Sprintf("category %d", budget.CategoryID)
				if err == nil {
					name = category.Name
				}
				fmt.Printf("  [%d] %-20s $%.2f / %s\n", budget.ID, name, budget.Amount, budget.Period)
			}
			return nil
		},
	}
}

func budgetsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a budget for a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			categoryName, _ := cmd.Flags().GetString("category")
			amount, _ := cmd.Flags().GetFloat64("amount")
			periodStr, _ := cmd.Flags().GetString("period")

			period, err := parseBudgetPeriod(periodStr)
			if err != nil {
				return err
			}
			if amount <= 0 {
				return fmt.Errorf("amount must be positive, got %.2f", amount)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := store.GetCategoryByName(ctx, categoryName)
			if err != nil {
				return fmt.Errorf("category %q: %w", categoryName, err)
			}

			budget, err := store.CreateBudget(ctx, &model.Budget{
				CategoryID: category.ID,
				Amount:     amount,
				Period:     period,
				StartDate:  time.Now(),
			})
			if err != nil {
				return fmt.Errorf("failed to create budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("budget %d created: %s $%.2f/%s",
				budget.ID, category.Name, budget.Amount, budget.Period)))
			return nil
		},
	}

	cmd.Flags().String("category", "", "category name")
	cmd.Flags().Float64("amount", 0, "budget amount")
	cmd.Flags().String("period", "monthly", "budget period (daily, weekly, monthly, quarterly, yearly)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func budgetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid budget ID %q: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteBudget(ctx, id); err != nil {
				return fmt.Errorf("failed to delete budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("budget %d deleted", id)))
			return nil
		},
	}
}

func parseBudgetPeriod(value string) (model.BudgetPeriod, error) {
	switch model.BudgetPeriod(value) {
	case model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly, model.PeriodQuarterly, model.PeriodYearly:
		return model.BudgetPeriod(value), nil
	default:
		return "", fmt.Errorf("unknown budget period %q", value)
	}
}
