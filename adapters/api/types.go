package api

import (
	"time"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// Request/response payloads for the JSON API. These mirror the logical event
// shapes; the canonical domain events are built at the handler boundary so no
// raw payload ever reaches the statistics core.

// OrderLineRequest is one crop line item in an order ingestion request.
type OrderLineRequest struct {
	ProductTitle string  `json:"product_title"`
	ProductID    string  `json:"product_id"`
	Quantity     float64 `json:"quantity"`
}

// OrderEventRequest is the order ingestion payload.
type OrderEventRequest struct {
	CustomerEmail string             `json:"customer_email"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	Lines         []OrderLineRequest `json:"lines"`
	OrderDate     time.Time          `json:"order_date"`
}

// ToEvent normalizes the request into a canonical order event.
func (r OrderEventRequest) ToEvent() learning.OrderEvent {
	lines := make([]learning.OrderLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, learning.OrderLine{
			Crop: learning.CropIdentity{
				Title:     line.ProductTitle,
				ProductID: line.ProductID,
			},
			CropName: line.ProductTitle,
			Quantity: line.Quantity,
		})
	}
	return learning.OrderEvent{
		EventID: core.NewEventID(),
		Customer: learning.CustomerIdentity{
			Email:       r.CustomerEmail,
			CustomerID:  r.CustomerID,
			DisplayName: r.CustomerName,
		},
		CustomerName: r.CustomerName,
		Lines:        lines,
		OrderDate:    core.NewTimestamp(r.OrderDate),
	}
}

// HarvestEventRequest is the harvest ingestion payload.
type HarvestEventRequest struct {
	CropTitle    string    `json:"crop_title"`
	CropID       string    `json:"crop_id"`
	YieldPerTray *float64  `json:"yield_per_tray,omitempty"`
	TotalYield   *float64  `json:"total_yield,omitempty"`
	Trays        float64   `json:"trays,omitempty"`
	HarvestDate  time.Time `json:"harvest_date"`
}

// ToEvent normalizes the request into a canonical harvest event.
func (r HarvestEventRequest) ToEvent() learning.HarvestEvent {
	return learning.HarvestEvent{
		EventID: core.NewEventID(),
		Crop: learning.CropIdentity{
			Title:     r.CropTitle,
			ProductID: r.CropID,
		},
		CropName:     r.CropTitle,
		YieldPerTray: r.YieldPerTray,
		TotalYield:   r.TotalYield,
		Trays:        r.Trays,
		HarvestDate:  core.NewTimestamp(r.HarvestDate),
	}
}

// IngestResponse reports the detections produced by one ingested event.
type IngestResponse struct {
	Accepted   bool                     `json:"accepted"`
	Detections []learning.AnomalyResult `json:"detections,omitempty"`
}

// BufferResponse reports the yield buffer recommendation for a crop.
type BufferResponse struct {
	CropKey       string `json:"crop_key"`
	BufferPercent int    `json:"buffer_percent"`
}

// DismissResponse reports how many alerts a dismissal touched.
type DismissResponse struct {
	Dismissed int `json:"dismissed"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
