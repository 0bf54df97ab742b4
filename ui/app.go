// Package ui serves the HTML learning report for operators who want a page
// instead of the JSON API.
package ui

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"croplearn/domain/learning"
	"croplearn/internal"
	"croplearn/internal/engine"
	"croplearn/internal/report"
)

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Learning Report</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 64rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; margin: 0.5rem 0; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.8rem; text-align: left; }
h1, h2 { border-bottom: 1px solid #eee; padding-bottom: 0.2rem; }
</style>
</head>
<body>
%s
</body>
</html>`

// App is the report web application.
type App struct {
	router       *chi.Mux
	orchestrator *engine.Orchestrator
	builder      *report.Builder
	log          *internal.Logger
}

// NewApp creates the report application.
func NewApp(orchestrator *engine.Orchestrator, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	app := &App{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		builder:      report.NewBuilder(),
		log:          logger.Named("Report"),
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleReport)
	a.router.Get("/report.md", a.handleReportMarkdown)
}

// Handler returns the router for serving and tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves the report on the given address.
func (a *App) Run(addr string) error {
	a.log.Info("report server listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, alerts, err := a.load(r)
	if err != nil {
		a.log.Error("report load failed: %v", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, a.builder.HTML(summary, alerts))
}

func (a *App) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	summary, alerts, err := a.load(r)
	if err != nil {
		a.log.Error("report load failed: %v", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, a.builder.Markdown(summary, alerts))
}

func (a *App) load(r *http.Request) (*learning.DashboardSummary, []*learning.Alert, error) {
	ctx := r.Context()
	summary, err := a.orchestrator.LatestDashboard(ctx)
	if err != nil {
		return nil, nil, err
	}
	alerts, err := a.orchestrator.PendingAlerts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return summary, alerts, nil
}
