// Package report derives on-demand analytics: cash flow, savings rate, and
// budget progress. Nothing here is stored; every figure is computed from
// transactions at call time.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// SavingsRate returns the percentage of income kept after expenses, rounded
// to the nearest whole percent. Zero income yields 0 regardless of expenses;
// positive income with zero expenses yields 100.
func SavingsRate(income, expenses float64) float64 {
	if income <= 0 {
		return 0
	}
	return math.Round((income - expenses) / income * 100)
}

// BudgetProgress reports current spend against one budget.
type BudgetProgress struct {
	Category   string
	Budget     model.Budget
	Spent      float64
	Percentage float64
}

// Generator computes reports from stored transactions.
type Generator struct {
	storage service.Storage
	now     func() time.Time
}

// NewGenerator creates a report generator backed by the given storage.
func NewGenerator(storage service.Storage) *Generator {
	return &Generator{storage: storage, now: time.Now}
}

// CashFlow summarizes income, expenses, and net flow for a period.
func (g *Generator) CashFlow(ctx context.Context, start, end time.Time) (*service.CashFlowSummary, error) {
	summary, err := g.storage.GetCashFlow(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cash flow: %w", err)
	}
	return summary, nil
}

// BudgetProgress computes current spend for every configured budget.
func (g *Generator) BudgetProgress(ctx context.Context) ([]BudgetProgress, error) {
	budgets, err := g.storage.GetBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch budgets: %w", err)
	}

	progress := make([]BudgetProgress, 0, len(budgets))
	for _, budget := range budgets {
		start, end := budget.Window(g.now())
		spent, err := g.storage.SumCategoryExpenses(ctx, budget.CategoryID, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to sum spend for budget %d: %w", budget.ID, err)
		}

		name := fmt.Sprintf("category %d", budget.CategoryID)
		if category, err := g.storage.GetCategoryByID(ctx, budget.CategoryID); err == nil {
			name = category.Name
		}

		progress = append(progress, BudgetProgress{
			Category:   name,
			Budget:     budget,
			Spent:      spent,
			Percentage: math.Round(spent / budget.Amount * 100),
		})
	}

	return progress, nil
}
