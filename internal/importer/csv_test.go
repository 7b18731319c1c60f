package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Amount,Merchant,Description,Type,Account",
		"2026-08-01,45.99,Amazon,ORDER #114-3941689,expense,chk-1",
		"08/02/2026,\"$1,250.00\",Acme Corp,Payroll,income,chk-1",
		"2026-08-03,-19.99,Netflix,Monthly subscription,,chk-1",
	}, "\n")

	transactions, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	amazon := transactions[0]
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), amazon.Date)
	assert.InDelta(t, 45.99, amazon.Amount, 0.001)
	assert.Equal(t, "Amazon", amazon.Merchant)
	assert.Equal(t, "ORDER #114-3941689", amazon.Description)
	assert.False(t, amazon.IsIncome)
	assert.Equal(t, "chk-1", amazon.AccountID)
	assert.NotEmpty(t, amazon.ID)
	assert.Equal(t, amazon.GenerateHash(), amazon.Hash)

	payroll := transactions[1]
	assert.InDelta(t, 1250.00, payroll.Amount, 0.001)
	assert.True(t, payroll.IsIncome)

	netflix := transactions[2]
	assert.InDelta(t, 19.99, netflix.Amount, 0.001, "negative amounts are normalized")
	assert.False(t, netflix.IsIncome)
}

func TestParseCSVHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"posted_date,total,payee,memo",
		"2026-08-10,12.50,Corner Cafe,latte",
	}, "\n")

	transactions, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Corner Cafe", transactions[0].Merchant)
	assert.Equal(t, "latte", transactions[0].Description)
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errText string
	}{
		{
			name:    "missing amount column",
			input:   "date,merchant\n2026-08-01,Amazon",
			errText: "missing a amount column",
		},
		{
			name:    "missing date column",
			input:   "amount,merchant\n10.00,Amazon",
			errText: "missing a date column",
		},
		{
			name:    "bad date value",
			input:   "date,amount\nnot-a-date,10.00",
			errText: "unrecognized date",
		},
		{
			name:    "bad amount value",
			input:   "date,amount\n2026-08-01,ten dollars",
			errText: "invalid amount",
		},
		{
			name:    "zero amount",
			input:   "date,amount\n2026-08-01,0",
			errText: "amount cannot be zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
