// Package testutil provides shared helpers for tests that need a real
// database or canned transaction data.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite database and registers
// cleanup. Migrations seed the system categories, so they are available
// immediately.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}

// Transaction builds a transaction with sensible defaults for tests. The
// hash is derived after opts are applied.
func Transaction(id string, date time.Time, amount float64, opts ...func(*model.Transaction)) model.Transaction {
	txn := model.Transaction{
		ID:        id,
		Date:      date,
		Amount:    amount,
		Merchant:  "Test Merchant",
		AccountID: "test-account",
	}
	for _, opt := range opts {
		opt(&txn)
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// WithMerchant sets the merchant name.
func WithMerchant(name string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Merchant = name }
}

// WithDescription sets the description.
func WithDescription(desc string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Description = desc }
}

// WithCategory sets the category ID.
func WithCategory(id int) func(*model.Transaction) {
	return func(t *model.Transaction) { t.CategoryID = &id }
}

// AsIncome marks the transaction as income.
func AsIncome() func(*model.Transaction) {
	return func(t *model.Transaction) { t.IsIncome = true }
}
