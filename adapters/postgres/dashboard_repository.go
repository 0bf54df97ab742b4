package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"croplearn/domain/learning"
)

// DashboardRepository implements ports.DashboardStore. Every publication is a
// fresh row; Latest picks the newest so readers always see one consistent
// snapshot and history stays queryable.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Publish stores a freshly built summary.
func (r *DashboardRepository) Publish(ctx context.Context, summary *learning.DashboardSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard summary: %w", err)
	}

	query := `INSERT INTO dashboard_summaries (doc, generated_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, doc, summary.GeneratedAt.Time()); err != nil {
		return fmt.Errorf("failed to insert dashboard summary: %w", err)
	}
	return nil
}

// Latest returns the newest summary, or (nil, nil) when none was published yet.
func (r *DashboardRepository) Latest(ctx context.Context) (*learning.DashboardSummary, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM dashboard_summaries ORDER BY generated_at DESC, id DESC LIMIT 1`).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}

	var summary learning.DashboardSummary
	if err := json.Unmarshal(doc, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dashboard summary: %w", err)
	}
	return &summary, nil
}
