// Package storage provides the data persistence layer for the ledgerline application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidAlert       = errors.New("invalid alert")
	ErrSystemCategory     = errors.New("system categories cannot be modified")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

// validateBudget validates a budget.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if budget.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if budget.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBudget)
	}
	if !model.ValidBudgetPeriod(budget.Period) {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, budget.Period)
	}
	if budget.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrInvalidBudget)
	}
	if budget.EndDate != nil && budget.EndDate.Before(budget.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidBudget)
	}
	return nil
}

// validateAlertEvent validates an alert event before insertion.
func validateAlertEvent(event *model.AlertEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	switch event.Type {
	case model.AlertLargePurchase, model.AlertAnomaly, model.AlertBudgetWarning:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, event.Type)
	}
	switch event.Severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
	default:
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidAlert, event.Severity)
	}
	if event.Message == "" {
		return fmt.Errorf("%w: missing message", ErrInvalidAlert)
	}
	return nil
}
