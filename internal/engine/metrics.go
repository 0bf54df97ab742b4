package engine

import "sync/atomic"

// Metrics counts fast-path and batch outcomes. A dropped update is a silent
// precision loss for the affected key, not a crash, so the rate has to be
// measurable rather than swallowed.
type Metrics struct {
	OrdersProcessed   atomic.Int64
	HarvestsProcessed atomic.Int64
	EventsSkipped     atomic.Int64 // malformed input, rejected before any mutation
	EventsDropped     atomic.Int64 // lock timeouts and store failures
	AlertsEmitted     atomic.Int64
	BatchRuns         atomic.Int64
	BatchKeyErrors    atomic.Int64
}

// MetricsSnapshot is a plain copy of the counters for reporting.
type MetricsSnapshot struct {
	OrdersProcessed   int64 `json:"orders_processed"`
	HarvestsProcessed int64 `json:"harvests_processed"`
	EventsSkipped     int64 `json:"events_skipped"`
	EventsDropped     int64 `json:"events_dropped"`
	AlertsEmitted     int64 `json:"alerts_emitted"`
	BatchRuns         int64 `json:"batch_runs"`
	BatchKeyErrors    int64 `json:"batch_key_errors"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		OrdersProcessed:   m.OrdersProcessed.Load(),
		HarvestsProcessed: m.HarvestsProcessed.Load(),
		EventsSkipped:     m.EventsSkipped.Load(),
		EventsDropped:     m.EventsDropped.Load(),
		AlertsEmitted:     m.AlertsEmitted.Load(),
		BatchRuns:         m.BatchRuns.Load(),
		BatchKeyErrors:    m.BatchKeyErrors.Load(),
	}
}
