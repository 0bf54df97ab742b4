package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"croplearn/domain/core"
	"croplearn/domain/learning"
	"croplearn/internal/errors"
)

// AlertRepository implements ports.AlertStore. Alerts are append-only; the
// status column is duplicated out of the doc so the pending index stays cheap.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Append inserts a new alert.
func (r *AlertRepository) Append(ctx context.Context, alert *learning.Alert) error {
	doc, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	query := `INSERT INTO alerts (id, status, doc, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, alert.ID.String(), string(alert.Status), doc, alert.CreatedAt.Time()); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Dismiss transitions one pending alert to dismissed.
func (r *AlertRepository) Dismiss(ctx context.Context, id core.AlertID) error {
	query := `
		UPDATE alerts
		SET status = $1, doc = jsonb_set(doc, '{status}', to_jsonb($1::text))
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, string(learning.AlertDismissed), id.String())
	if err != nil {
		return fmt.Errorf("failed to dismiss alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read dismiss result: %w", err)
	}
	if affected == 0 {
		return errors.NotFound("alert " + id.String())
	}
	return nil
}

// DismissAll transitions every pending alert to dismissed and reports how many.
func (r *AlertRepository) DismissAll(ctx context.Context) (int, error) {
	query := `
		UPDATE alerts
		SET status = $1, doc = jsonb_set(doc, '{status}', to_jsonb($1::text))
		WHERE status = $2`

	result, err := r.db.ExecContext(ctx, query, string(learning.AlertDismissed), string(learning.AlertPending))
	if err != nil {
		return 0, fmt.Errorf("failed to dismiss alerts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read dismiss-all result: %w", err)
	}
	return int(affected), nil
}

// ListPending returns alerts awaiting operator action, newest first.
func (r *AlertRepository) ListPending(ctx context.Context) ([]*learning.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT doc FROM alerts WHERE status = $1 ORDER BY created_at DESC`, string(learning.AlertPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}
	defer rows.Close()

	var out []*learning.Alert
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		var alert learning.Alert
		if err := json.Unmarshal(doc, &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		out = append(out, &alert)
	}
	return out, rows.Err()
}
