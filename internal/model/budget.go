package model

import "time"

// BudgetPeriod is the recurrence interval of a budget.
type BudgetPeriod string

// Budget period constants.
const (
	PeriodDaily     BudgetPeriod = "daily"
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

// ValidBudgetPeriod reports whether p is a recognized budget period.
func ValidBudgetPeriod(p BudgetPeriod) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// Budget caps spending for a category over a recurring period. Spend against
// a budget is always computed from transactions, never stored.
type Budget struct {
	StartDate  time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
	Period     BudgetPeriod
	ID         int
	CategoryID int
	Amount     float64
}

// Window returns the date range budget spend is computed over: the budget's
// start date through its end date, or through now when no end date is set.
func (b *Budget) Window(now time.Time) (start, end time.Time) {
	end = now
	if b.EndDate != nil {
		end = *b.EndDate
	}
	return b.StartDate, end
}
