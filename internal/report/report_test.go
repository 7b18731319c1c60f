package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

func TestSavingsRate(t *testing.T) {
	tests := []struct {
		name     string
		income   float64
		expenses float64
		want     float64
	}{
		{name: "typical month", income: 5000, expenses: 3500, want: 30},
		{name: "zero income is zero regardless of expenses", income: 0, expenses: 2000, want: 0},
		{name: "no expenses is a full savings rate", income: 4200, expenses: 0, want: 100},
		{name: "overspending goes negative", income: 1000, expenses: 1500, want: -50},
		{name: "rounds to nearest percent", income: 3000, expenses: 2000, want: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SavingsRate(tt.income, tt.expenses), 0.0001)
		})
	}
}

// reportStorage stubs the storage calls the generator depends on.
type reportStorage struct {
	service.Storage
	budgets  []model.Budget
	category *model.Category
	spent    float64
}

func (s *reportStorage) GetBudgets(_ context.Context) ([]model.Budget, error) {
	return s.budgets, nil
}

func (s *reportStorage) GetCategoryByID(_ context.Context, _ int) (*model.Category, error) {
	return s.category, nil
}

func (s *reportStorage) SumCategoryExpenses(_ context.Context, _ int, _, _ time.Time) (float64, error) {
	return s.spent, nil
}

func TestGenerator_BudgetProgress(t *testing.T) {
	storage := &reportStorage{
		budgets: []model.Budget{{
			ID:         1,
			CategoryID: 3,
			Amount:     400.00,
			Period:     model.PeriodMonthly,
			StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
		category: &model.Category{ID: 3, Name: "Dining"},
		spent:    150.00,
	}

	progress, err := NewGenerator(storage).BudgetProgress(context.Background())
	require.NoError(t, err)
	require.Len(t, progress, 1)

	assert.Equal(t, "Dining", progress[0].Category)
	assert.InDelta(t, 150.00, progress[0].Spent, 0.0001)
	assert.InDelta(t, 38.0, progress[0].Percentage, 0.0001)
}
