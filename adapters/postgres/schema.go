// Package postgres persists the learning stores with sqlx. Stats records keep
// the schemaless-document shape of the source system: one jsonb doc per key,
// upserted wholesale under the engine's per-key lock.
package postgres

import (
	"github.com/jmoiron/sqlx"

	"croplearn/internal/errors"
)

// EnsureSchema creates the learning tables when they do not exist yet.
func EnsureSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customer_crop_stats (
			customer_key TEXT NOT NULL,
			crop_key     TEXT NOT NULL,
			doc          JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (customer_key, crop_key)
		)`,
		`CREATE TABLE IF NOT EXISTS yield_profiles (
			crop_key   TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			doc        JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS alerts_status_idx ON alerts (status)`,
		`CREATE TABLE IF NOT EXISTS dashboard_summaries (
			id           BIGSERIAL PRIMARY KEY,
			doc          JSONB NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return errors.StoreError("schema bootstrap failed", err)
		}
	}
	return nil
}
