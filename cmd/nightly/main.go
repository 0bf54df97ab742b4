// Command nightly runs one batch reconciliation pass against the configured
// stores and exits. Intended for cron-style deployments that do not keep the
// long-running server's internal scheduler.
package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"croplearn/adapters/memory"
	"croplearn/adapters/postgres"
	"croplearn/internal"
	"croplearn/internal/config"
	"croplearn/internal/engine"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := internal.DefaultLogger

	var orchestrator *engine.Orchestrator
	if cfg.Database.URL == "" {
		logger.Warn("no DATABASE_URL configured, batch pass over empty in-memory stores")
		store := memory.NewStore()
		orchestrator = engine.New(store, store, store, engine.Options{
			Params:           cfg.Learning,
			LockTimeout:      cfg.Engine.LockTimeout,
			BatchParallelism: cfg.Engine.BatchParallelism,
			Logger:           logger,
		})
	} else {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		orchestrator = engine.New(
			postgres.NewStatsRepository(db),
			postgres.NewAlertRepository(db),
			postgres.NewDashboardRepository(db),
			engine.Options{
				Params:           cfg.Learning,
				LockTimeout:      cfg.Engine.LockTimeout,
				BatchParallelism: cfg.Engine.BatchParallelism,
				Logger:           logger,
			},
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Engine.BatchTimeout)
	defer cancel()

	summary, err := orchestrator.RunNightly(ctx)
	if err != nil {
		log.Fatalf("nightly batch: %v", err)
	}
	logger.Info("nightly batch complete: %d pairs, %d crops, %d skipped",
		summary.PairCount, summary.CropCount, summary.SkippedKeys)
}
