package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("open ended budget runs through now", func(t *testing.T) {
		b := Budget{StartDate: start}
		gotStart, gotEnd := b.Window(now)
		assert.Equal(t, start, gotStart)
		assert.Equal(t, now, gotEnd)
	})

	t.Run("end date caps the window", func(t *testing.T) {
		end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		b := Budget{StartDate: start, EndDate: &end}
		gotStart, gotEnd := b.Window(now)
		assert.Equal(t, start, gotStart)
		assert.Equal(t, end, gotEnd)
	})
}

func TestValidBudgetPeriod(t *testing.T) {
	for _, p := range []BudgetPeriod{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly} {
		assert.True(t, ValidBudgetPeriod(p), string(p))
	}
	assert.False(t, ValidBudgetPeriod("fortnightly"))
}
