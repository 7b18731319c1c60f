// Package alerts evaluates new transactions against user-configured alert
// conditions and records alert events for the ones that fire.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

const (
	// anomalyLookback is the history window for the statistical check.
	anomalyLookback = 90 * 24 * time.Hour
	// anomalyMinSamples is the minimum history size; below it the check abstains.
	anomalyMinSamples = 10
	// anomalyZScore flags amounts at least this many deviations above the mean.
	anomalyZScore = 3.0
)

// Detector runs the alert checks for newly created transactions.
type Detector struct {
	storage service.Storage
	now     func() time.Time
}

// NewDetector creates an alert detector backed by the given storage.
func NewDetector(storage service.Storage) *Detector {
	return &Detector{storage: storage, now: time.Now}
}

// EvaluateTransaction runs every alert check against a newly persisted
// transaction. Checks are independent; a failing check is logged and
// swallowed so the transaction-create path is never blocked by alerting.
func (d *Detector) EvaluateTransaction(ctx context.Context, txn model.Transaction) {
	checks := []struct {
		run  func(context.Context, model.Transaction) (bool, error)
		name string
	}{
		{name: "large_purchase", run: d.CheckLargePurchase},
		{name: "anomaly", run: d.CheckAnomaly},
		{name: "budget_warning", run: d.CheckBudgetWarning},
	}

	for _, check := range checks {
		if _, err := check.run(ctx, txn); err != nil {
			slog.Warn("alert check failed",
				"check", check.name,
				"transaction_id", txn.ID,
				"error", err)
		}
	}
}

// CheckLargePurchase fires when an expense meets the configured amount
// threshold (default 100). Amounts at twice the threshold or more are high
// severity, anything else medium.
func (d *Detector) CheckLargePurchase(ctx context.Context, txn model.Transaction) (bool, error) {
	if txn.IsIncome {
		return false, nil
	}

	setting, err := d.setting(ctx, model.AlertLargePurchase)
	if err != nil {
		return false, err
	}
	if !setting.Enabled {
		return false, nil
	}

	threshold := setting.EffectiveThreshold(model.DefaultLargePurchaseThreshold)
	if txn.Amount < threshold {
		return false, nil
	}

	severity := model.SeverityMedium
	if txn.Amount >= 2*threshold {
		severity = model.SeverityHigh
	}

	metadata, _ := json.Marshal(map[string]float64{
		"amount":    txn.Amount,
		"threshold": threshold,
	})
	event := &model.AlertEvent{
		Type:          model.AlertLargePurchase,
		Severity:      severity,
		Message:       fmt.Sprintf("Large purchase: $%.2f at %s", txn.Amount, txn.MerchantLabel()),
		TransactionID: &txn.ID,
		Metadata:      string(metadata),
	}
	if err := d.storage.SaveAlertEvent(ctx, event); err != nil {
		return false, err
	}
	return true, nil
}

// CheckAnomaly flags expenses whose amount sits three or more population
// standard deviations above the category's trailing 90-day mean. With fewer
// than ten historical samples, or a flat history, the check abstains.
func (d *Detector) CheckAnomaly(ctx context.Context, txn model.Transaction) (bool, error) {
	if txn.IsIncome || txn.CategoryID == nil {
		return false, nil
	}

	setting, err := d.setting(ctx, model.AlertAnomaly)
	if err != nil {
		return false, err
	}
	if !setting.Enabled {
		return false, nil
	}

	since := d.now().Add(-anomalyLookback)
	history, err := d.storage.GetCategoryExpensesSince(ctx, *txn.CategoryID, since)
	if err != nil {
		return false, err
	}

	amounts := make([]float64, 0, len(history))
	for _, h := range history {
		if h.ID == txn.ID {
			// The candidate itself may already be persisted.
			continue
		}
		amounts = append(amounts, h.Amount)
	}
	if len(amounts) < anomalyMinSamples {
		return false, nil
	}

	mean, stdDev := meanStdDev(amounts)
	if stdDev == 0 {
		return false, nil
	}

	z := (txn.Amount - mean) / stdDev
	if z < anomalyZScore {
		return false, nil
	}

	metadata, _ := json.Marshal(map[string]float64{
		"amount":  txn.Amount,
		"mean":    mean,
		"std_dev": stdDev,
		"z_score": z,
	})
	event := &model.AlertEvent{
		Type:          model.AlertAnomaly,
		Severity:      model.SeverityMedium,
		Message:       fmt.Sprintf("Unusual spending: $%.2f at %s is %.1f standard deviations above your 90-day average", txn.Amount, txn.MerchantLabel(), z),
		TransactionID: &txn.ID,
		Metadata:      string(metadata),
	}
	if err := d.storage.SaveAlertEvent(ctx, event); err != nil {
		return false, err
	}
	return true, nil
}

// CheckBudgetWarning fires when spending in the transaction's category has
// reached the configured percentage (default 80) of any budget covering it.
// At or past 100% the alert is high severity with "exceeded" wording.
func (d *Detector) CheckBudgetWarning(ctx context.Context, txn model.Transaction) (bool, error) {
	if txn.IsIncome || txn.CategoryID == nil {
		return false, nil
	}

	setting, err := d.setting(ctx, model.AlertBudgetWarning)
	if err != nil {
		return false, err
	}
	if !setting.Enabled {
		return false, nil
	}
	threshold := setting.EffectiveThreshold(model.DefaultBudgetWarningThreshold)

	budgets, err := d.storage.GetBudgetsByCategory(ctx, *txn.CategoryID)
	if err != nil {
		return false, err
	}

	category, err := d.storage.GetCategoryByID(ctx, *txn.CategoryID)
	if err != nil {
		return false, err
	}

	fired := false
	for i := range budgets {
		budget := budgets[i]
		start, end := budget.Window(d.now())
		spent, err := d.storage.SumCategoryExpenses(ctx, budget.CategoryID, start, end)
		if err != nil {
			return fired, err
		}

		percentage := math.Round(spent / budget.Amount * 100)
		if percentage < threshold {
			continue
		}

		severity := model.SeverityMedium
		var message string
		if percentage >= 100 {
			severity = model.SeverityHigh
			message = fmt.Sprintf("Budget exceeded: %s spending is at %.0f%% of its $%.2f limit",
				category.Name, percentage, budget.Amount)
		} else {
			message = fmt.Sprintf("Budget warning: %s spending has reached %.0f%% of its $%.2f limit",
				category.Name, percentage, budget.Amount)
		}

		metadata, _ := json.Marshal(map[string]float64{
			"spent":      spent,
			"limit":      budget.Amount,
			"percentage": percentage,
		})
		budgetID := budget.ID
		event := &model.AlertEvent{
			Type:          model.AlertBudgetWarning,
			Severity:      severity,
			Message:       message,
			TransactionID: &txn.ID,
			BudgetID:      &budgetID,
			Metadata:      string(metadata),
		}
		if err := d.storage.SaveAlertEvent(ctx, event); err != nil {
			return fired, err
		}
		fired = true
	}

	return fired, nil
}

// setting loads the configuration for an alert type. A type the user never
// configured behaves as enabled with default thresholds, so alerting works
// out of the box.
func (d *Detector) setting(ctx context.Context, alertType model.AlertType) (*model.AlertSetting, error) {
	setting, err := d.storage.GetAlertSetting(ctx, alertType)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return &model.AlertSetting{Type: alertType, Enabled: true}, nil
	}
	return setting, nil
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return mean, math.Sqrt(sqDiff / float64(len(values)))
}
