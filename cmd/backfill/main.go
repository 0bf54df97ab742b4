// Command backfill replays an order/harvest history workbook through the fast
// path, so a fresh deployment starts with learned distributions instead of a
// cold cache. Rows replay in workbook order; replaying the same workbook twice
// doubles the observation counts, so run it against empty stores.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"croplearn/adapters/excel"
	"croplearn/adapters/postgres"
	"croplearn/internal"
	"croplearn/internal/config"
	"croplearn/internal/engine"
)

func main() {
	workbook := flag.String("workbook", "", "path to the history .xlsx workbook")
	runBatch := flag.Bool("batch", true, "run a batch pass after the replay to publish the dashboard")
	flag.Parse()

	if *workbook == "" {
		log.Fatal("usage: backfill -workbook history.xlsx")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("backfill requires DATABASE_URL; an in-memory replay would be lost on exit")
	}

	logger := internal.DefaultLogger

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	orchestrator := engine.New(
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

	history, err := excel.NewReader(*workbook).Read()
	if err != nil {
		log.Fatalf("read workbook: %v", err)
	}
	for _, row := range history.Skipped {
		logger.Warn("skipped workbook row: %s", row)
	}

	ctx := context.Background()
	var failed int
	for _, event := range history.Orders {
		if _, err := orchestrator.IngestOrder(ctx, event); err != nil {
			failed++
			logger.Error("order replay failed for event %s: %v", event.EventID, err)
		}
	}
	for _, event := range history.Harvests {
		if _, err := orchestrator.IngestHarvest(ctx, event); err != nil {
			failed++
			logger.Error("harvest replay failed for event %s: %v", event.EventID, err)
		}
	}

	logger.Info("replayed %d orders and %d harvests (%d failed, %d rows skipped)",
		len(history.Orders), len(history.Harvests), failed, len(history.Skipped))

	if *runBatch {
		batchCtx, cancel := context.WithTimeout(ctx, cfg.Engine.BatchTimeout)
		defer cancel()
		if _, err := orchestrator.RunNightly(batchCtx); err != nil {
			log.Fatalf("post-replay batch: %v", err)
		}
	}
}
