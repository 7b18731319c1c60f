package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/dedup"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// Result summarizes one import run.
type Result struct {
	Imported     int
	Stats        dedup.BatchStats
	Transactions []model.Transaction // the rows that were persisted
}

// Importer screens incoming transactions for duplicates and persists the rest.
type Importer struct {
	storage  service.Storage
	detector *dedup.Detector
}

func NewImporter(storage service.Storage) *Importer {
	return &Importer{
		storage:  storage,
		detector: dedup.NewDetector(storage),
	}
}

// Import runs the batch through duplicate detection and saves every
// transaction that did not match an existing row. The optional progress
// callback receives the count of candidates screened so far.
func (i *Importer) Import(ctx context.Context, candidates []model.Transaction, progress func(done int)) (*Result, error) {
	if err := validateImportContext(ctx); err != nil {
		return nil, err
	}

	result := &Result{}
	if len(candidates) == 0 {
		return result, nil
	}

	checks := i.detector.CheckBatch(ctx, candidates)
	result.Stats = dedup.Summarize(checks)

	for n, check := range checks {
		if !check.IsDuplicate {
			result.Transactions = append(result.Transactions, candidates[n])
		} else {
			slog.Debug("skipping duplicate transaction",
				"merchant", candidates[n].MerchantLabel(),
				"amount", candidates[n].Amount,
				"confidence", check.Confidence,
			)
		}
		if progress != nil {
			progress(n + 1)
		}
	}

	if len(result.Transactions) > 0 {
		if err := i.storage.SaveTransactions(ctx, result.Transactions); err != nil {
			return nil, fmt.Errorf("failed to save imported transactions: %w", err)
		}
	}
	result.Imported = len(result.Transactions)

	slog.Info("import complete",
		"screened", len(candidates),
		"imported", result.Imported,
		"duplicates", result.Stats.Duplicates,
	)
	return result, nil
}

func validateImportContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}
