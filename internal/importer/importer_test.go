package importer

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

type importStorage struct {
	service.Storage

	existing []model.Transaction
	rangeErr error
	saveErr  error
	saved    []model.Transaction
}

func (s *importStorage) GetTransactionsByDateRange(_ context.Context, _, _ time.Time) ([]model.Transaction, error) {
	if s.rangeErr != nil {
		return nil, s.rangeErr
	}
	return s.existing, nil
}

func (s *importStorage) SaveTransactions(_ context.Context, txns []model.Transaction) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, txns...)
	return nil
}

func txnOn(day int, amount float64, merchant, description string) model.Transaction {
	return model.Transaction{
		ID:          merchant + description,
		Date:        time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		Amount:      amount,
		Merchant:    merchant,
		Description: description,
		AccountID:   "chk-1",
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	storage := &importStorage{
		existing: []model.Transaction{
			txnOn(1, 45.99, "Amazon", "ORDER #114-3941689"),
		},
	}
	imp := NewImporter(storage)

	candidates := []model.Transaction{
		txnOn(1, 45.99, "Amazon", "ORDER #114-3941689"), // duplicate
		txnOn(2, 12.50, "Corner Cafe", "latte"),         // new
	}

	var ticks []int
	result, err := imp.Import(context.Background(), candidates, func(done int) {
		ticks = append(ticks, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Corner Cafe", result.Transactions[0].Merchant)
	assert.Equal(t, result.Transactions, storage.saved)

	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, 1, result.Stats.New)

	assert.Equal(t, []int{1, 2}, ticks)
}

func TestImportEmptyBatch(t *testing.T) {
	storage := &importStorage{}
	imp := NewImporter(storage)

	result, err := imp.Import(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Empty(t, storage.saved)
}

func TestImportDegradedDuplicateCheck(t *testing.T) {
	// A failing date-range query must not fail the import; everything is
	// treated as new and saved.
	storage := &importStorage{rangeErr: errors.New("disk on fire")}
	imp := NewImporter(storage)

	candidates := []model.Transaction{txnOn(1, 45.99, "Amazon", "order")}
	result, err := imp.Import(context.Background(), candidates, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Len(t, storage.saved, 1)
}

func TestImportSaveError(t *testing.T) {
	storage := &importStorage{saveErr: errors.New("disk full")}
	imp := NewImporter(storage)

	_, err := imp.Import(context.Background(), []model.Transaction{txnOn(1, 10, "A", "b")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save imported transactions")
}
