package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
)

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, color, icon, user_id, created_at
		FROM categories
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its ID.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, color, icon, user_id, created_at
		FROM categories
		WHERE id = ?`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// GetCategoryByName returns a category by its name, or nil when absent.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, color, icon, user_id, created_at
		FROM categories
		WHERE name = ?`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// CreateCategory creates a new user category. A nil userID creates a system
// category; the seed migration is the only expected caller for those.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, color, icon string, userID *string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	existing, err := s.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, color, icon, user_id) VALUES (?, ?, ?, ?)`,
		name, color, icon, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created category", "name", name, "id", id)
	return s.GetCategoryByID(ctx, int(id))
}

// UpdateCategory updates a user-owned category. System categories are immutable.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, id int, name, color, icon string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	cat, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsSystem() {
		return fmt.Errorf("category %q: %w", cat.Name, ErrSystemCategory)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon = ? WHERE id = ?`,
		name, color, icon, id); err != nil {
		return fmt.Errorf("failed to update category %d: %w", id, err)
	}
	return nil
}

// DeleteCategory removes a user-owned category. Transactions referencing it
// keep their rows but lose the category reference.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	cat, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsSystem() {
		return fmt.Errorf("category %q: %w", cat.Name, ErrSystemCategory)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear category references: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category budgets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	return tx.Commit()
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var cat model.Category
	var userID sql.NullString

	if err := row.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &userID, &cat.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		cat.UserID = &userID.String
	}
	return &cat, nil
}
