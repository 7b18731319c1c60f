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

// SaveAlertSetting upserts the setting for an alert type. There is at most
// one setting row per type.
func (s *SQLiteStorage) SaveAlertSetting(ctx context.Context, setting *model.AlertSetting) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if setting == nil {
		return fmt.Errorf("%w: setting", ErrNilParameter)
	}
	switch setting.Type {
	case model.AlertLargePurchase, model.AlertAnomaly, model.AlertBudgetWarning:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, setting.Type)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_settings (alert_type, threshold, enabled)
		VALUES (?, ?, ?)
		ON CONFLICT(alert_type) DO UPDATE SET
			threshold = excluded.threshold,
			enabled = excluded.enabled`,
		string(setting.Type), setting.Threshold, setting.Enabled)
	if err != nil {
		return fmt.Errorf("failed to save alert setting %s: %w", setting.Type, err)
	}

	slog.Debug("saved alert setting",
		"type", setting.Type,
		"enabled", setting.Enabled)
	return nil
}

// GetAlertSetting returns the setting for an alert type, or nil when the
// user has never configured one.
func (s *SQLiteStorage) GetAlertSetting(ctx context.Context, alertType model.AlertType) (*model.AlertSetting, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var setting model.AlertSetting
	var threshold sql.NullFloat64
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT alert_type, threshold, enabled FROM alert_settings WHERE alert_type = ?`,
		string(alertType),
	).Scan(&typ, &threshold, &setting.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Never configured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alert setting: %w", err)
	}

	setting.Type = model.AlertType(typ)
	if threshold.Valid {
		setting.Threshold = &threshold.Float64
	}
	return &setting, nil
}

// GetAlertSettings returns all configured alert settings.
func (s *SQLiteStorage) GetAlertSettings(ctx context.Context) ([]model.AlertSetting, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT alert_type, threshold, enabled FROM alert_settings ORDER BY alert_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []model.AlertSetting
	for rows.Next() {
		var setting model.AlertSetting
		var threshold sql.NullFloat64
		var typ string
		if err := rows.Scan(&typ, &threshold, &setting.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan alert setting: %w", err)
		}
		setting.Type = model.AlertType(typ)
		if threshold.Valid {
			setting.Threshold = &threshold.Float64
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert settings: %w", err)
	}

	return settings, nil
}

// SaveAlertEvent inserts a new alert event and fills in its generated ID.
func (s *SQLiteStorage) SaveAlertEvent(ctx context.Context, event *model.AlertEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlertEvent(event); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_events (alert_type, severity, message, transaction_id, budget_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(event.Type), string(event.Severity), event.Message,
		event.TransactionID, event.BudgetID, nullableString(event.Metadata))
	if err != nil {
		return fmt.Errorf("failed to save alert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alert event ID: %w", err)
	}
	event.ID = id

	slog.Info("alert fired",
		"type", event.Type,
		"severity", event.Severity,
		"message", event.Message)
	return nil
}

// GetAlertEvents returns alert events newest first, optionally only unread ones.
func (s *SQLiteStorage) GetAlertEvents(ctx context.Context, unreadOnly bool) ([]model.AlertEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, alert_type, severity, message, transaction_id, budget_id, read, metadata, created_at
		FROM alert_events`
	if unreadOnly {
		query += ` WHERE read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.AlertEvent
	for rows.Next() {
		var event model.AlertEvent
		var typ, severity string
		var transactionID sql.NullString
		var budgetID sql.NullInt64
		var metadata sql.NullString
		if err := rows.Scan(
			&event.ID, &typ, &severity, &event.Message,
			&transactionID, &budgetID, &event.Read, &metadata, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		event.Type = model.AlertType(typ)
		event.Severity = model.AlertSeverity(severity)
		if transactionID.Valid {
			event.TransactionID = &transactionID.String
		}
		if budgetID.Valid {
			id := int(budgetID.Int64)
			event.BudgetID = &id
		}
		if metadata.Valid {
			event.Metadata = metadata.String
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert events: %w", err)
	}

	return events, nil
}

// MarkAlertEventRead sets the read flag on an alert event. The read flag is
// the only mutable field of an event.
func (s *SQLiteStorage) MarkAlertEventRead(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE alert_events SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert event %d read: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert event %d: %w", id, common.ErrNotFound)
	}
	return nil
}
