package plaid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name: "valid sandbox config",
			config: Config{
				ClientID:    "client-id",
				Secret:      "secret",
				Environment: "sandbox",
				AccessToken: "access-token",
			},
		},
		{
			name: "valid production config",
			config: Config{
				ClientID:    "client-id",
				Secret:      "secret",
				Environment: "production",
				AccessToken: "access-token",
			},
		},
		{
			name: "missing client ID",
			config: Config{
				Secret:      "secret",
				Environment: "sandbox",
				AccessToken: "access-token",
			},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "missing secret",
			config: Config{
				ClientID:    "client-id",
				Environment: "sandbox",
				AccessToken: "access-token",
			},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "missing access token",
			config: Config{
				ClientID:    "client-id",
				Secret:      "secret",
				Environment: "sandbox",
			},
			wantErr: common.ErrMissingConfig,
		},
		{
			name: "unknown environment",
			config: Config{
				ClientID:    "client-id",
				Secret:      "secret",
				Environment: "staging",
				AccessToken: "access-token",
			},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClientAllowsMissingAccessToken(t *testing.T) {
	// The Link flow needs a client before any access token exists.
	client, err := NewClient(Config{
		ClientID:    "client-id",
		Secret:      "secret",
		Environment: "sandbox",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestGetTransactionsRejectsInvertedRange(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:    "client-id",
		Secret:      "secret",
		Environment: "sandbox",
		AccessToken: "access-token",
	})
	require.NoError(t, err)

	start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = client.GetTransactions(context.Background(), start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date must be before end date")
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "title cases shouty names",
			input:    "WHOLE FOODS MARKET",
			expected: "Whole Foods Market",
		},
		{
			name:     "strips trailing transaction id",
			input:    "STARBUCKS 800782912",
			expected: "Starbucks",
		},
		{
			name:     "keeps short numeric suffix",
			input:    "STORE 42",
			expected: "Store 42",
		},
		{
			name:     "removes corporate suffixes",
			input:    "ACME CORP",
			expected: "Acme",
		},
		{
			name:     "removes stacked suffixes",
			input:    "WIDGETS CO LTD",
			expected: "Widgets",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}

func TestMockClientTracksCalls(t *testing.T) {
	mock := NewMockClient()
	mock.GetTransactionsFn = func(_ context.Context, _, _ time.Time) ([]model.Transaction, error) {
		return []model.Transaction{{ID: "txn-1"}}, nil
	}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	transactions, err := mock.GetTransactions(context.Background(), start, end)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	require.Len(t, mock.GetTransactionsCalls, 1)
	assert.Equal(t, start, mock.GetTransactionsCalls[0].StartDate)
	assert.Equal(t, end, mock.GetTransactionsCalls[0].EndDate)

	mock.Reset()
	assert.Empty(t, mock.GetTransactionsCalls)
}
