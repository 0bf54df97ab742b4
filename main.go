package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"croplearn/adapters/api"
	"croplearn/adapters/memory"
	"croplearn/adapters/postgres"
	"croplearn/internal"
	"croplearn/internal/config"
	"croplearn/internal/engine"
	"croplearn/ports"
	"croplearn/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := internal.DefaultLogger
	gin.SetMode(cfg.Server.GinMode)

	stats, alerts, dashboard, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer cleanup()

	orchestrator := engine.New(stats, alerts, dashboard, engine.Options{
		Params:           cfg.Learning,
		LockTimeout:      cfg.Engine.LockTimeout,
		BatchParallelism: cfg.Engine.BatchParallelism,
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := engine.NewScheduler(orchestrator, cfg.Engine.BatchInterval, cfg.Engine.BatchTimeout, cfg.Engine.BatchRetries, logger)
	go scheduler.Run(ctx)

	reportApp := ui.NewApp(orchestrator, logger)
	go func() {
		if err := reportApp.Run(":" + cfg.Server.ReportPort); err != nil {
			logger.Error("report server stopped: %v", err)
		}
	}()

	server := api.NewServer(orchestrator, logger)
	if err := server.Run(":" + cfg.Server.APIPort); err != nil {
		log.Fatalf("api server: %v", err)
	}
}

// buildStores selects postgres when a database URL is configured, otherwise an
// in-memory store suitable for local runs.
func buildStores(cfg *config.Config, logger *internal.Logger) (ports.StatsStore, ports.AlertStore, ports.DashboardStore, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("no DATABASE_URL configured, using in-memory stores")
		store := memory.NewStore()
		return store, store, store, func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := postgres.EnsureSchema(db); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database: %v", err)
		}
	}
	return postgres.NewStatsRepository(db), postgres.NewAlertRepository(db), postgres.NewDashboardRepository(db), cleanup, nil
}
