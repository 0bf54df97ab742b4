package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"croplearn/domain/learning"
)

// StatsRepository implements ports.StatsStore over jsonb documents.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetPair loads one customer x crop record, or (nil, nil) when none exists.
func (r *StatsRepository) GetPair(ctx context.Context, pair learning.PairKey) (*learning.CustomerCropStats, error) {
	query := `SELECT doc FROM customer_crop_stats WHERE customer_key = $1 AND crop_key = $2`

	var doc []byte
	err := r.db.QueryRowContext(ctx, query, pair.Customer.String(), pair.Crop.String()).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // lazily created by the orchestrator
		}
		return nil, fmt.Errorf("failed to load pair stats: %w", err)
	}

	var stats learning.CustomerCropStats
	if err := json.Unmarshal(doc, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pair stats: %w", err)
	}
	return &stats, nil
}

// PutPair upserts one record wholesale. The engine's per-key lock guarantees
// nobody else writes the same key inside the read-modify-write window.
func (r *StatsRepository) PutPair(ctx context.Context, stats *learning.CustomerCropStats) error {
	doc, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal pair stats: %w", err)
	}

	query := `
		INSERT INTO customer_crop_stats (customer_key, crop_key, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (customer_key, crop_key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, stats.CustomerKey.String(), stats.CropKey.String(), doc); err != nil {
		return fmt.Errorf("failed to upsert pair stats: %w", err)
	}
	return nil
}

// ListPairs returns a snapshot of every record for the batch pass.
func (r *StatsRepository) ListPairs(ctx context.Context) ([]*learning.CustomerCropStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM customer_crop_stats ORDER BY customer_key, crop_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pair stats: %w", err)
	}
	defer rows.Close()

	var out []*learning.CustomerCropStats
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan pair stats row: %w", err)
		}
		var stats learning.CustomerCropStats
		if err := json.Unmarshal(doc, &stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pair stats row: %w", err)
		}
		out = append(out, &stats)
	}
	return out, rows.Err()
}

// GetYieldProfile loads one crop profile, or (nil, nil) when none exists.
func (r *StatsRepository) GetYieldProfile(ctx context.Context, crop learning.CropKey) (*learning.YieldProfile, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM yield_profiles WHERE crop_key = $1`, crop.String()).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load yield profile: %w", err)
	}

	var profile learning.YieldProfile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yield profile: %w", err)
	}
	return &profile, nil
}

// PutYieldProfile upserts one crop profile wholesale.
func (r *StatsRepository) PutYieldProfile(ctx context.Context, profile *learning.YieldProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal yield profile: %w", err)
	}

	query := `
		INSERT INTO yield_profiles (crop_key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (crop_key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, profile.CropKey.String(), doc); err != nil {
		return fmt.Errorf("failed to upsert yield profile: %w", err)
	}
	return nil
}

// ListYieldProfiles returns a snapshot of every crop profile.
func (r *StatsRepository) ListYieldProfiles(ctx context.Context) ([]*learning.YieldProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM yield_profiles ORDER BY crop_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list yield profiles: %w", err)
	}
	defer rows.Close()

	var out []*learning.YieldProfile
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan yield profile row: %w", err)
		}
		var profile learning.YieldProfile
		if err := json.Unmarshal(doc, &profile); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yield profile row: %w", err)
		}
		out = append(out, &profile)
	}
	return out, rows.Err()
}
