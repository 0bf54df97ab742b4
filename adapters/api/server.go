// Package api exposes the learning engine over a JSON HTTP surface.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"croplearn/internal"
	"croplearn/internal/engine"
	"croplearn/internal/errors"
)

// Server wires the engine to gin routes.
type Server struct {
	router       *gin.Engine
	orchestrator *engine.Orchestrator
	log          *internal.Logger
}

// NewServer creates the API server. GIN_MODE is honored by gin itself.
func NewServer(orchestrator *engine.Orchestrator, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:       gin.New(),
		orchestrator: orchestrator,
		log:          logger.Named("API"),
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.POST("/events/orders", s.handleOrderEvent)
	s.router.POST("/events/harvests", s.handleHarvestEvent)

	s.router.GET("/predictions/:customer/:crop", s.handlePrediction)
	s.router.GET("/anomaly-preview/:customer/:crop", s.handleAnomalyPreview)
	s.router.GET("/crops/:crop/buffer", s.handleBuffer)

	s.router.GET("/alerts", s.handleListAlerts)
	s.router.POST("/alerts/:id/dismiss", s.handleDismissAlert)
	s.router.POST("/alerts/dismiss-all", s.handleDismissAll)

	s.router.GET("/dashboard", s.handleDashboard)
	s.router.GET("/metrics", s.handleMetrics)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler returns the underlying http.Handler for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("API server listening on %s", addr)
	return s.router.Run(addr)
}

// renderError maps AppError codes onto HTTP statuses.
func renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeEventInvalid, errors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeLockTimeout:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorResponse{Code: errors.GetCode(err), Message: err.Error()})
}
