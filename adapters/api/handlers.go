package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"croplearn/domain/core"
	"croplearn/domain/learning"
	"croplearn/internal/errors"
)

// ===== Event ingestion =====

func (s *Server) handleOrderEvent(c *gin.Context) {
	var req OrderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.EventInvalid("malformed order payload", err))
		return
	}

	detections, err := s.orchestrator.IngestOrder(c.Request.Context(), req.ToEvent())
	if err != nil && len(detections) == 0 {
		renderError(c, err)
		return
	}

	flagged := detections[:0:0]
	for _, d := range detections {
		if d.IsAnomaly {
			flagged = append(flagged, d)
		}
	}
	c.JSON(http.StatusAccepted, IngestResponse{Accepted: true, Detections: flagged})
}

func (s *Server) handleHarvestEvent(c *gin.Context) {
	var req HarvestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.EventInvalid("malformed harvest payload", err))
		return
	}

	detection, err := s.orchestrator.IngestHarvest(c.Request.Context(), req.ToEvent())
	if err != nil {
		renderError(c, err)
		return
	}

	resp := IngestResponse{Accepted: true}
	if detection.IsAnomaly {
		resp.Detections = []learning.AnomalyResult{detection}
	}
	c.JSON(http.StatusAccepted, resp)
}

// ===== Predictions and detection previews =====

func (s *Server) handlePrediction(c *gin.Context) {
	pair := learning.PairKey{
		Customer: learning.CustomerKey(c.Param("customer")),
		Crop:     learning.CropKey(c.Param("crop")),
	}

	prediction, err := s.orchestrator.Predict(c.Request.Context(), pair)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (s *Server) handleAnomalyPreview(c *gin.Context) {
	pair := learning.PairKey{
		Customer: learning.CustomerKey(c.Param("customer")),
		Crop:     learning.CropKey(c.Param("crop")),
	}

	quantity, err := strconv.ParseFloat(c.Query("quantity"), 64)
	if err != nil {
		renderError(c, errors.EventInvalid("quantity query parameter must be a number", err))
		return
	}

	result, err := s.orchestrator.PreviewOrderAnomaly(c.Request.Context(), pair, quantity)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBuffer(c *gin.Context) {
	crop := learning.CropKey(c.Param("crop"))

	percent, err := s.orchestrator.BufferRecommendation(c.Request.Context(), crop)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, BufferResponse{CropKey: string(crop), BufferPercent: percent})
}

// ===== Alerts =====

func (s *Server) handleListAlerts(c *gin.Context) {
	alerts, err := s.orchestrator.PendingAlerts(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleDismissAlert(c *gin.Context) {
	id, err := core.ParseAlertID(c.Param("id"))
	if err != nil {
		renderError(c, errors.EventInvalid("invalid alert id", err))
		return
	}

	if err := s.orchestrator.DismissAlert(c.Request.Context(), id); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, DismissResponse{Dismissed: 1})
}

func (s *Server) handleDismissAll(c *gin.Context) {
	n, err := s.orchestrator.DismissAllAlerts(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, DismissResponse{Dismissed: n})
}

// ===== Dashboard and metrics =====

func (s *Server) handleDashboard(c *gin.Context) {
	summary, err := s.orchestrator.LatestDashboard(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	if summary == nil {
		renderError(c, errors.NotFound("dashboard summary"))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.orchestrator.Metrics())
}
