// Package importer ingests transactions from files and external sources,
// filtering out rows that already exist before anything is persisted.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Column aliases recognized in CSV headers.
var columnAliases = map[string][]string{
	"date":        {"date", "transaction_date", "posted_date"},
	"amount":      {"amount", "value", "total"},
	"merchant":    {"merchant", "merchant_name", "payee", "vendor"},
	"description": {"description", "memo", "details", "name"},
	"type":        {"type", "direction", "transaction_type"},
	"account":     {"account", "account_id"},
}

// ParseCSV reads transactions from a headered CSV stream. Date and amount
// columns are required; merchant, description, type, and account are mapped
// when present. Each parsed row is assigned a fresh ID.
func ParseCSV(reader io.Reader) ([]model.Transaction, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapColumns(headers)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		txn, err := parseRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

// mapColumns resolves header names to field indexes, case-insensitively.
func mapColumns(headers []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}

	columns := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				columns[field] = i
				break
			}
		}
	}

	for _, required := range []string{"date", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV is missing a %s column", required)
		}
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int) (model.Transaction, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseDate(field("date"))
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := parseAmount(field("amount"))
	if err != nil {
		return model.Transaction{}, err
	}

	// Stored amounts are always positive; an explicit income type column
	// marks direction, and negative values are treated as expenses.
	isIncome := strings.EqualFold(field("type"), "income")
	if amount < 0 {
		amount = -amount
	}

	txn := model.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Amount:      amount,
		Merchant:    field("merchant"),
		Description: field("description"),
		AccountID:   field("account"),
		IsIncome:    isIncome,
	}
	txn.Hash = txn.GenerateHash()
	return txn, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("missing amount")
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if amount == 0 {
		return 0, fmt.Errorf("amount cannot be zero")
	}
	return amount, nil
}
