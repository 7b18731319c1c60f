package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

const transactionColumns = `id, hash, date, merchant, description, amount, is_income,
	category_id, account_id, parent_transaction_id, link_confidence, link_type,
	link_metadata, created_at`

// SaveTransactions saves multiple transactions to the database. Rows whose
// hash already exists are silently skipped, making imports idempotent.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, merchant, description, amount, is_income,
			category_id, account_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		if _, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.Date,
			txn.Merchant,
			txn.Description,
			txn.Amount,
			txn.IsIncome,
			txn.CategoryID,
			nullableString(txn.AccountID),
		); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactionByID retrieves a transaction by its ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = ?`, transactionColumns)

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions`, transactionColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactionsByDateRange retrieves all transactions within [start, end],
// inclusive, ordered oldest first.
func (s *SQLiteStorage) GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, start, end)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE date >= ? AND date <= ?
		ORDER BY date, id`, transactionColumns)

	return s.queryTransactions(ctx, query, start, end)
}

// GetUnlinkedTransactions retrieves transactions that are neither children
// nor parents of a link, ordered oldest first.
func (s *SQLiteStorage) GetUnlinkedTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions t
		WHERE t.parent_transaction_id IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM transactions c WHERE c.parent_transaction_id = t.id
		)
		ORDER BY t.date, t.id`, transactionColumns)

	return s.queryTransactions(ctx, query)
}

// GetCategoryExpensesSince retrieves expense transactions in a category with
// dates on or after the given time.
func (s *SQLiteStorage) GetCategoryExpensesSince(ctx context.Context, categoryID int, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE category_id = ? AND is_income = 0 AND date >= ?
		ORDER BY date, id`, transactionColumns)

	return s.queryTransactions(ctx, query, categoryID, since)
}

// SumCategoryExpenses returns the total expense amount for a category within
// [start, end], inclusive.
func (s *SQLiteStorage) SumCategoryExpenses(ctx context.Context, categoryID int, start, end time.Time) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE category_id = ? AND is_income = 0 AND date >= ? AND date <= ?`,
		categoryID, start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum category expenses: %w", err)
	}

	return total, nil
}

// DeleteTransaction removes a transaction. Children of the deleted row are
// unlinked, never cascade-deleted.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET parent_transaction_id = NULL, link_confidence = NULL,
		    link_type = NULL, link_metadata = NULL
		WHERE parent_transaction_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unlink children of %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return tx.Commit()
}

// LinkTransactions records a parent/child relationship for each child.
// Nesting is rejected: the parent must not itself be a child, and no child
// may already have children or a parent of its own.
func (s *SQLiteStorage) LinkTransactions(ctx context.Context, parentID string, childIDs []string, confidence float64, linkType model.LinkType, metadata string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(parentID, "parentID"); err != nil {
		return err
	}
	if len(childIDs) == 0 {
		return fmt.Errorf("%w: childIDs", ErrEmptySlice)
	}
	if confidence < 0 || confidence > 100 {
		return fmt.Errorf("%w: confidence %.1f out of range", ErrInvalidTransaction, confidence)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var parentParent sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT parent_transaction_id FROM transactions WHERE id = ?`, parentID,
	).Scan(&parentParent)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("parent %s: %w", parentID, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query parent %s: %w", parentID, err)
	}
	if parentParent.Valid {
		return fmt.Errorf("parent %s: %w", parentID, common.ErrNestedLink)
	}

	for _, childID := range childIDs {
		if childID == parentID {
			return fmt.Errorf("%w: transaction cannot be its own parent", common.ErrNestedLink)
		}

		var childParent sql.NullString
		var grandchildren int
		err = tx.QueryRowContext(ctx, `
			SELECT parent_transaction_id,
			       (SELECT COUNT(*) FROM transactions c WHERE c.parent_transaction_id = t.id)
			FROM transactions t WHERE t.id = ?`, childID,
		).Scan(&childParent, &grandchildren)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("child %s: %w", childID, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to query child %s: %w", childID, err)
		}
		if childParent.Valid {
			return fmt.Errorf("child %s: %w", childID, common.ErrAlreadyLinked)
		}
		if grandchildren > 0 {
			return fmt.Errorf("child %s has children: %w", childID, common.ErrNestedLink)
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET parent_transaction_id = ?, link_confidence = ?,
			    link_type = ?, link_metadata = ?
			WHERE id = ?`,
			parentID, confidence, string(linkType), metadata, childID,
		); err != nil {
			return fmt.Errorf("failed to link child %s: %w", childID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link: %w", err)
	}

	slog.Debug("linked transactions",
		"parent", parentID,
		"children", len(childIDs),
		"confidence", confidence,
		"link_type", linkType)
	return nil
}

// UnlinkTransaction clears the linking fields of a child transaction.
func (s *SQLiteStorage) UnlinkTransaction(ctx context.Context, childID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(childID, "childID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET parent_transaction_id = NULL, link_confidence = NULL,
		    link_type = NULL, link_metadata = NULL
		WHERE id = ?`, childID)
	if err != nil {
		return fmt.Errorf("failed to unlink transaction %s: %w", childID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", childID, common.ErrNotFound)
	}
	return nil
}

// GetChildTransactions retrieves the children linked to a parent transaction.
func (s *SQLiteStorage) GetChildTransactions(ctx context.Context, parentID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(parentID, "parentID"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE parent_transaction_id = ?
		ORDER BY date, id`, transactionColumns)

	return s.queryTransactions(ctx, query, parentID)
}

// GetCashFlow computes income, expense, and net flow for a period, broken
// down by category name.
func (s *SQLiteStorage) GetCashFlow(ctx context.Context, start, end time.Time) (*service.CashFlowSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, start, end)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized'), t.is_income, COUNT(*), SUM(t.amount)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.date >= ? AND t.date <= ?
		GROUP BY c.name, t.is_income`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash flow: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := &service.CashFlowSummary{
		DateRange:          service.DateRange{Start: start, End: end},
		IncomeByCategory:   make(map[string]service.CategorySummary),
		ExpensesByCategory: make(map[string]service.CategorySummary),
	}

	for rows.Next() {
		var name string
		var isIncome bool
		var count int
		var amount float64
		if err := rows.Scan(&name, &isIncome, &count, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow row: %w", err)
		}

		cat := service.CategorySummary{Count: count, Amount: amount}
		if isIncome {
			summary.IncomeByCategory[name] = cat
			summary.TotalIncome += amount
		} else {
			summary.ExpensesByCategory[name] = cat
			summary.TotalExpenses += amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash flow rows: %w", err)
	}

	summary.NetCashFlow = summary.TotalIncome - summary.TotalExpenses
	return summary, nil
}

// queryTransactions runs a query returning transaction rows.
func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var categoryID sql.NullInt64
	var accountID, parentID, linkType, linkMetadata sql.NullString
	var linkConfidence sql.NullFloat64

	if err := row.Scan(
		&txn.ID,
		&txn.Hash,
		&txn.Date,
		&txn.Merchant,
		&txn.Description,
		&txn.Amount,
		&txn.IsIncome,
		&categoryID,
		&accountID,
		&parentID,
		&linkConfidence,
		&linkType,
		&linkMetadata,
		&txn.CreatedAt,
	); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		id := int(categoryID.Int64)
		txn.CategoryID = &id
	}
	if accountID.Valid {
		txn.AccountID = accountID.String
	}
	if parentID.Valid {
		txn.ParentTransactionID = &parentID.String
	}
	if linkConfidence.Valid {
		txn.LinkConfidence = &linkConfidence.Float64
	}
	if linkType.Valid {
		lt := model.LinkType(linkType.String)
		txn.LinkType = &lt
	}
	if linkMetadata.Valid {
		txn.LinkMetadata = linkMetadata.String
	}

	return &txn, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
