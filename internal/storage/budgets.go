package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
)

// CreateBudget creates a new budget for a category.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	// The category must exist
	if _, err := s.GetCategoryByID(ctx, budget.CategoryID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (category_id, amount, period, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)`,
		budget.CategoryID, budget.Amount, string(budget.Period), budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get budget ID: %w", err)
	}

	slog.Info("created budget",
		"id", id,
		"category_id", budget.CategoryID,
		"amount", budget.Amount,
		"period", budget.Period)

	created := *budget
	created.ID = int(id)
	return &created, nil
}

// GetBudgets returns all budgets ordered by start date.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryBudgets(ctx, `
		SELECT id, category_id, amount, period, start_date, end_date, created_at
		FROM budgets
		ORDER BY start_date, id`)
}

// GetBudgetsByCategory returns all budgets configured for a category.
func (s *SQLiteStorage) GetBudgetsByCategory(ctx context.Context, categoryID int) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryBudgets(ctx, `
		SELECT id, category_id, amount, period, start_date, end_date, created_at
		FROM budgets
		WHERE category_id = ?
		ORDER BY start_date, id`, categoryID)
}

// DeleteBudget removes a budget.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) queryBudgets(ctx context.Context, query string, args ...any) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		var period string
		var endDate sql.NullTime
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Amount, &period, &b.StartDate, &endDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Period = model.BudgetPeriod(period)
		if endDate.Valid {
			b.EndDate = &endDate.Time
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	return budgets, nil
}
