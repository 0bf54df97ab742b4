package learning

import (
	"fmt"
	"math"
	"strconv"

	"croplearn/domain/core"
)

// Canonical event types. Differently-shaped records from the synced source
// collections are normalized into these shapes at the ingestion boundary; no
// duck-typed record ever reaches the statistics core.

// OrderLine is one crop line item inside an order.
type OrderLine struct {
	Crop     CropIdentity `json:"crop"`
	CropName string       `json:"crop_name,omitempty"`
	Quantity float64      `json:"quantity"`
}

// OrderEvent is one ingested customer order.
type OrderEvent struct {
	EventID      core.EventID     `json:"event_id"`
	Customer     CustomerIdentity `json:"customer"`
	CustomerName string           `json:"customer_name,omitempty"`
	Lines        []OrderLine      `json:"lines"`
	OrderDate    core.Timestamp   `json:"order_date"`
}

// Validate rejects events the fast path must skip rather than fold into the
// accumulators. A malformed quantity is never coerced to zero.
func (e OrderEvent) Validate() error {
	if e.OrderDate.IsZero() {
		return fmt.Errorf("order date is missing")
	}
	if len(e.Lines) == 0 {
		return fmt.Errorf("order has no line items")
	}
	for i, line := range e.Lines {
		if err := validQuantity(line.Quantity); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// HarvestEvent is one ingested crop harvest. Either the per-tray yield or the
// total yield (with tray count) may be supplied.
type HarvestEvent struct {
	EventID      core.EventID   `json:"event_id"`
	Crop         CropIdentity   `json:"crop"`
	CropName     string         `json:"crop_name,omitempty"`
	YieldPerTray *float64       `json:"yield_per_tray,omitempty"`
	TotalYield   *float64       `json:"total_yield,omitempty"`
	Trays        float64        `json:"trays,omitempty"`
	HarvestDate  core.Timestamp `json:"harvest_date"`
}

// Yield resolves the per-tray yield observation for this harvest.
func (e HarvestEvent) Yield() (float64, error) {
	if e.YieldPerTray != nil {
		if err := validQuantity(*e.YieldPerTray); err != nil {
			return 0, fmt.Errorf("yield per tray: %w", err)
		}
		return *e.YieldPerTray, nil
	}
	if e.TotalYield != nil {
		if err := validQuantity(*e.TotalYield); err != nil {
			return 0, fmt.Errorf("total yield: %w", err)
		}
		if e.Trays <= 0 {
			return 0, fmt.Errorf("total yield given without a positive tray count")
		}
		return *e.TotalYield / e.Trays, nil
	}
	return 0, fmt.Errorf("harvest carries neither yield_per_tray nor total_yield")
}

// Validate rejects harvests the fast path must skip.
func (e HarvestEvent) Validate() error {
	if e.HarvestDate.IsZero() {
		return fmt.Errorf("harvest date is missing")
	}
	_, err := e.Yield()
	return err
}

func validQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("quantity is not a finite number")
	}
	if q <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", q)
	}
	return nil
}

// formatFloat renders a float for fingerprinting with full round-trip
// precision, so equal states hash equal and nothing else does.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
