package model

import "time"

// AlertType identifies the condition a user alert is configured for.
type AlertType string

// Alert type constants.
const (
	AlertLargePurchase AlertType = "large_purchase"
	AlertAnomaly       AlertType = "anomaly"
	AlertBudgetWarning AlertType = "budget_warning"
)

// AlertSeverity grades how urgent a fired alert is.
type AlertSeverity string

// Alert severity constants.
const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Default thresholds applied when a setting has no explicit threshold.
const (
	DefaultLargePurchaseThreshold = 100.0
	DefaultBudgetWarningThreshold = 80.0
)

// AlertSetting is a per-type alert configuration. There is at most one
// setting per alert type; saves use upsert semantics.
type AlertSetting struct {
	Type      AlertType
	Threshold *float64
	Enabled   bool
}

// EffectiveThreshold returns the configured threshold, or the given default
// when none is set.
func (s *AlertSetting) EffectiveThreshold(def float64) float64 {
	if s.Threshold != nil {
		return *s.Threshold
	}
	return def
}

// AlertEvent is a persisted record of a triggered alert. Immutable after
// creation except for the Read flag.
type AlertEvent struct {
	CreatedAt     time.Time
	Type          AlertType
	Severity      AlertSeverity
	Message       string
	TransactionID *string
	BudgetID      *int
	Metadata      string // free-form JSON
	ID            int64
	Read          bool
}
