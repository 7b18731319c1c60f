package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// alertStorage stubs the storage calls the detector depends on.
type alertStorage struct {
	service.Storage
	settings   map[model.AlertType]*model.AlertSetting
	settingErr error
	history    []model.Transaction
	historyErr error
	budgets    []model.Budget
	category   *model.Category
	spent      float64
	saveErr    error
	events     []model.AlertEvent
}

func (s *alertStorage) GetAlertSetting(_ context.Context, alertType model.AlertType) (*model.AlertSetting, error) {
	if s.settingErr != nil {
		return nil, s.settingErr
	}
	return s.settings[alertType], nil
}

func (s *alertStorage) SaveAlertEvent(_ context.Context, event *model.AlertEvent) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *alertStorage) GetCategoryExpensesSince(_ context.Context, _ int, _ time.Time) ([]model.Transaction, error) {
	return s.history, s.historyErr
}

func (s *alertStorage) GetBudgetsByCategory(_ context.Context, _ int) ([]model.Budget, error) {
	return s.budgets, nil
}

func (s *alertStorage) GetCategoryByID(_ context.Context, id int) (*model.Category, error) {
	return s.category, nil
}

func (s *alertStorage) SumCategoryExpenses(_ context.Context, _ int, _, _ time.Time) (float64, error) {
	return s.spent, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func expenseIn(category int, amount float64) model.Transaction {
	return model.Transaction{
		ID:          "txn-1",
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:      amount,
		Merchant:    "Amazon",
		Description: "Order",
		CategoryID:  intPtr(category),
	}
}

func TestCheckLargePurchase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		setting      *model.AlertSetting
		txn          model.Transaction
		wantFired    bool
		wantSeverity model.AlertSeverity
	}{
		{
			name:         "amount at default threshold fires medium",
			txn:          expenseIn(1, 100.00),
			wantFired:    true,
			wantSeverity: model.SeverityMedium,
		},
		{
			name:      "amount below default threshold does not fire",
			txn:       expenseIn(1, 99.99),
			wantFired: false,
		},
		{
			name:         "amount at twice the threshold fires high",
			txn:          expenseIn(1, 200.00),
			wantFired:    true,
			wantSeverity: model.SeverityHigh,
		},
		{
			name:         "custom threshold applies",
			setting:      &model.AlertSetting{Type: model.AlertLargePurchase, Threshold: floatPtr(500), Enabled: true},
			txn:          expenseIn(1, 450.00),
			wantFired:    false,
		},
		{
			name:      "disabled setting suppresses the alert",
			setting:   &model.AlertSetting{Type: model.AlertLargePurchase, Enabled: false},
			txn:       expenseIn(1, 5000.00),
			wantFired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &alertStorage{settings: map[model.AlertType]*model.AlertSetting{}}
			if tt.setting != nil {
				storage.settings[model.AlertLargePurchase] = tt.setting
			}

			fired, err := NewDetector(storage).CheckLargePurchase(ctx, tt.txn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFired, fired)
			if tt.wantFired {
				require.Len(t, storage.events, 1)
				assert.Equal(t, model.AlertLargePurchase, storage.events[0].Type)
				assert.Equal(t, tt.wantSeverity, storage.events[0].Severity)
				assert.Contains(t, storage.events[0].Message, "Large purchase")
			} else {
				assert.Empty(t, storage.events)
			}
		})
	}

	t.Run("income is always skipped", func(t *testing.T) {
		storage := &alertStorage{}
		paycheck := expenseIn(1, 10000.00)
		paycheck.IsIncome = true

		fired, err := NewDetector(storage).CheckLargePurchase(ctx, paycheck)
		require.NoError(t, err)
		assert.False(t, fired)
	})
}

func varietyHistory(amounts ...float64) []model.Transaction {
	history := make([]model.Transaction, len(amounts))
	for i, amount := range amounts {
		history[i] = model.Transaction{
			ID:     "hist-" + string(rune('a'+i)),
			Amount: amount,
		}
	}
	return history
}

func TestCheckAnomaly(t *testing.T) {
	ctx := context.Background()

	// Mean 50, population std dev ~7.07.
	baseline := varietyHistory(40, 45, 50, 55, 60, 40, 45, 50, 55, 60)

	t.Run("fires at three deviations above the mean", func(t *testing.T) {
		storage := &alertStorage{history: baseline}
		fired, err := NewDetector(storage).CheckAnomaly(ctx, expenseIn(1, 80.00))
		require.NoError(t, err)
		assert.True(t, fired)
		require.Len(t, storage.events, 1)
		assert.Equal(t, model.AlertAnomaly, storage.events[0].Type)
		assert.Equal(t, model.SeverityMedium, storage.events[0].Severity)
	})

	t.Run("below three deviations stays quiet", func(t *testing.T) {
		storage := &alertStorage{history: baseline}
		fired, err := NewDetector(storage).CheckAnomaly(ctx, expenseIn(1, 70.00))
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("abstains with fewer than ten samples however extreme the amount", func(t *testing.T) {
		storage := &alertStorage{history: varietyHistory(40, 45, 50, 55, 60, 40, 45, 50, 55)}
		fired, err := NewDetector(storage).CheckAnomaly(ctx, expenseIn(1, 1000000.00))
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("abstains on flat history", func(t *testing.T) {
		storage := &alertStorage{history: varietyHistory(50, 50, 50, 50, 50, 50, 50, 50, 50, 50)}
		fired, err := NewDetector(storage).CheckAnomaly(ctx, expenseIn(1, 500.00))
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("the candidate itself is excluded from its history", func(t *testing.T) {
		history := varietyHistory(40, 45, 50, 55, 60, 40, 45, 50, 55)
		candidate := expenseIn(1, 80.00)
		history = append(history, candidate)

		// With the candidate excluded only nine samples remain.
		storage := &alertStorage{history: history}
		fired, err := NewDetector(storage).CheckAnomaly(ctx, candidate)
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("uncategorized transactions are skipped", func(t *testing.T) {
		storage := &alertStorage{history: baseline}
		txn := expenseIn(1, 80.00)
		txn.CategoryID = nil
		fired, err := NewDetector(storage).CheckAnomaly(ctx, txn)
		require.NoError(t, err)
		assert.False(t, fired)
	})
}

func TestCheckBudgetWarning(t *testing.T) {
	ctx := context.Background()
	budget := model.Budget{
		ID:         7,
		CategoryID: 1,
		Amount:     1000.00,
		Period:     model.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	groceries := &model.Category{ID: 1, Name: "Groceries"}

	tests := []struct {
		name         string
		spent        float64
		wantFired    bool
		wantSeverity model.AlertSeverity
		wantWording  string
	}{
		{
			name:         "spend at the limit fires high with exceeded wording",
			spent:        1000.00,
			wantFired:    true,
			wantSeverity: model.SeverityHigh,
			wantWording:  "Budget exceeded",
		},
		{
			name:         "99 percent fires medium with warning wording",
			spent:        990.00,
			wantFired:    true,
			wantSeverity: model.SeverityMedium,
			wantWording:  "Budget warning",
		},
		{
			name:         "80 percent is the default firing floor",
			spent:        800.00,
			wantFired:    true,
			wantSeverity: model.SeverityMedium,
			wantWording:  "Budget warning",
		},
		{
			name:      "79 percent stays quiet",
			spent:     790.00,
			wantFired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &alertStorage{
				budgets:  []model.Budget{budget},
				category: groceries,
				spent:    tt.spent,
			}

			fired, err := NewDetector(storage).CheckBudgetWarning(ctx, expenseIn(1, 50.00))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFired, fired)
			if tt.wantFired {
				require.Len(t, storage.events, 1)
				event := storage.events[0]
				assert.Equal(t, model.AlertBudgetWarning, event.Type)
				assert.Equal(t, tt.wantSeverity, event.Severity)
				assert.Contains(t, event.Message, tt.wantWording)
				require.NotNil(t, event.BudgetID)
				assert.Equal(t, 7, *event.BudgetID)
			}
		})
	}

	t.Run("no budgets means no alert", func(t *testing.T) {
		storage := &alertStorage{category: groceries, spent: 5000}
		fired, err := NewDetector(storage).CheckBudgetWarning(ctx, expenseIn(1, 50.00))
		require.NoError(t, err)
		assert.False(t, fired)
	})
}

func TestEvaluateTransaction_SwallowsFailures(t *testing.T) {
	storage := &alertStorage{settingErr: errors.New("database closed")}

	// Must not panic or surface the error.
	NewDetector(storage).EvaluateTransaction(context.Background(), expenseIn(1, 250.00))
	assert.Empty(t, storage.events)
}
