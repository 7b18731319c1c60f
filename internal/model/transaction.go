// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// LinkType records how a parent/child relationship was established.
type LinkType string

// Link type constants.
const (
	LinkTypeManual LinkType = "manual"
	LinkTypeAuto   LinkType = "auto"
)

// Transaction represents a single financial transaction from any source.
type Transaction struct {
	Date        time.Time
	ID          string
	Merchant    string // Cleaned merchant name; may be empty for some sources
	Description string // Raw transaction description
	CategoryID  *int
	AccountID   string
	Hash        string
	Amount      float64
	IsIncome    bool

	// Linking fields. A transaction with a non-nil ParentTransactionID is a
	// child of an aggregated charge and must not have children of its own.
	ParentTransactionID *string
	LinkConfidence      *float64 // 0-100
	LinkType            *LinkType
	LinkMetadata        string // JSON scoring breakdown, empty when unlinked

	CreatedAt time.Time
}

// GenerateHash creates a unique hash for idempotent imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Merchant,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IsLinked reports whether the transaction is a child of another transaction.
func (t *Transaction) IsLinked() bool {
	return t.ParentTransactionID != nil
}

// MerchantLabel returns the merchant name, falling back to the description
// when no cleaned merchant name is available.
func (t *Transaction) MerchantLabel() string {
	if t.Merchant != "" {
		return t.Merchant
	}
	return t.Description
}
