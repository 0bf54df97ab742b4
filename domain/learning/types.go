package learning

import (
	"croplearn/domain/core"
)

// ============================================================================
// STATS RECORDS (mutable accumulator state, one document per key)
// ============================================================================

// CustomerCropStats is the running statistical summary for one customer x crop
// pair. Created lazily on the first order for the pair, mutated on every
// subsequent order, never deleted.
//
// INVARIANTS:
// - Quantity.Count >= 0 and Quantity.M2 >= 0
// - EWMA is nil exactly until the first observation
// - Interval.Count == Quantity.Count - 1 once any orders exist
type CustomerCropStats struct {
	CustomerKey  CustomerKey `json:"customer_key"`
	CropKey      CropKey     `json:"crop_key"`
	CustomerName string      `json:"customer_name,omitempty"`
	CropName     string      `json:"crop_name,omitempty"`

	// Order quantity distribution (Welford)
	Quantity Moments `json:"quantity"`

	// Smoothed quantity predictor; nil until the first order
	EWMA      *float64 `json:"ewma"`
	EWMAAlpha float64  `json:"ewma_alpha"`

	// Incremental simple linear regression over (order index, quantity)
	SumX  float64 `json:"sum_x"`
	SumY  float64 `json:"sum_y"`
	SumXY float64 `json:"sum_xy"`
	SumX2 float64 `json:"sum_x2"`

	// Days-between-orders distribution (Welford)
	Interval Moments `json:"interval"`

	// Prediction accuracy accumulators
	TotalPredictions   int64   `json:"total_predictions"`
	SumAbsPercentError float64 `json:"sum_abs_percent_error"`
	RunningBias        float64 `json:"running_bias"`

	FirstOrderDate core.Timestamp `json:"first_order_date"`
	LastOrderDate  core.Timestamp `json:"last_order_date"`
	LastQuantity   float64        `json:"last_quantity"`
}

// NewCustomerCropStats constructs the lazily-created default record for a pair.
func NewCustomerCropStats(pair PairKey, customerName, cropName string) *CustomerCropStats {
	return &CustomerCropStats{
		CustomerKey:  pair.Customer,
		CropKey:      pair.Crop,
		CustomerName: customerName,
		CropName:     cropName,
	}
}

// Pair returns the record's key.
func (s *CustomerCropStats) Pair() PairKey {
	return PairKey{Customer: s.CustomerKey, Crop: s.CropKey}
}

// MAPE returns the mean absolute percent error across all scored predictions,
// or 0 when no prediction has been scored yet.
func (s *CustomerCropStats) MAPE() float64 {
	if s.TotalPredictions == 0 {
		return 0
	}
	return s.SumAbsPercentError / float64(s.TotalPredictions)
}

// Clone returns a deep copy safe to hand to readers outside the per-key lock.
func (s *CustomerCropStats) Clone() *CustomerCropStats {
	out := *s
	if s.EWMA != nil {
		v := *s.EWMA
		out.EWMA = &v
	}
	return &out
}

// Fingerprint produces a deterministic hash over every accumulator field, used
// to verify that replaying the same event stream yields identical state.
func (s *CustomerCropStats) Fingerprint() core.Hash {
	ewma := "nil"
	if s.EWMA != nil {
		ewma = formatFloat(*s.EWMA)
	}
	return core.ComputeFingerprint(map[string]interface{}{
		"customer_key":          string(s.CustomerKey),
		"crop_key":              string(s.CropKey),
		"count":                 s.Quantity.Count,
		"mean":                  formatFloat(s.Quantity.Mean),
		"m2":                    formatFloat(s.Quantity.M2),
		"ewma":                  ewma,
		"ewma_alpha":            formatFloat(s.EWMAAlpha),
		"sum_x":                 formatFloat(s.SumX),
		"sum_y":                 formatFloat(s.SumY),
		"sum_xy":                formatFloat(s.SumXY),
		"sum_x2":                formatFloat(s.SumX2),
		"interval_count":        s.Interval.Count,
		"interval_mean":         formatFloat(s.Interval.Mean),
		"interval_m2":           formatFloat(s.Interval.M2),
		"total_predictions":     s.TotalPredictions,
		"sum_abs_percent_error": formatFloat(s.SumAbsPercentError),
		"running_bias":          formatFloat(s.RunningBias),
		"last_quantity":         formatFloat(s.LastQuantity),
	})
}

// YieldProfile is the running harvest-yield summary for one crop. Created on
// the first harvest event for the crop, mutated on each subsequent harvest.
type YieldProfile struct {
	CropKey  CropKey `json:"crop_key"`
	CropName string  `json:"crop_name,omitempty"`

	// Static baseline from the crop's profile sheet, oz per tray
	ProfileYieldPerTray float64 `json:"profile_yield_per_tray"`

	// Smoothed harvested-yield estimate; nil until the first harvest
	ActualYieldEstimate *float64 `json:"actual_yield_estimate"`

	// Harvested-yield distribution (Welford)
	Yield Moments `json:"yield"`

	// Recommended production buffer percent, recalculated as data accumulates
	AdjustedBufferPercent int `json:"adjusted_buffer_percent"`

	LastHarvestDate core.Timestamp `json:"last_harvest_date"`
}

// NewYieldProfile constructs the default profile for a crop.
func NewYieldProfile(crop CropKey, cropName string, profileYield float64, defaultBufferPct int) *YieldProfile {
	return &YieldProfile{
		CropKey:               crop,
		CropName:              cropName,
		ProfileYieldPerTray:   profileYield,
		AdjustedBufferPercent: defaultBufferPct,
	}
}

// Clone returns a deep copy of the profile.
func (p *YieldProfile) Clone() *YieldProfile {
	out := *p
	if p.ActualYieldEstimate != nil {
		v := *p.ActualYieldEstimate
		out.ActualYieldEstimate = &v
	}
	return &out
}

// ============================================================================
// DERIVED OUTPUTS
// ============================================================================

// TrendDirection classifies demand movement for a pair.
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// TrendSummary reports trend direction. Slope and weekly change are withheld
// (nil) below the minimum order count so a numeric value never implies
// confidence that does not exist.
type TrendSummary struct {
	Direction       TrendDirection `json:"direction"`
	Slope           *float64       `json:"slope,omitempty"`
	WeeklyChangePct *float64       `json:"weekly_change_pct,omitempty"`
}

// ConfidenceLevel bands the composite confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceBreakdown exposes the four 0-25 components behind a score.
type ConfidenceBreakdown struct {
	DataQuantity float64 `json:"data_quantity"`
	Consistency  float64 `json:"consistency"`
	Recency      float64 `json:"recency"`
	Regularity   float64 `json:"regularity"`
}

// Prediction is the per-key forecast surfaced to consumers. The stored EWMA is
// never mutated by bias correction; the corrected value exists only here.
type Prediction struct {
	CustomerKey     CustomerKey         `json:"customer_key"`
	CropKey         CropKey             `json:"crop_key"`
	EWMA            *float64            `json:"ewma"`
	Adjusted        float64             `json:"bias_corrected_prediction"`
	Corrected       bool                `json:"corrected"`
	RunningBias     float64             `json:"running_bias"`
	ConfidenceScore float64             `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel     `json:"confidence_level"`
	Breakdown       ConfidenceBreakdown `json:"confidence_breakdown"`
	Trend           TrendSummary        `json:"trend"`
	MAPE            float64             `json:"mape"`
}

// DetectionMethod identifies which anomaly regime produced a result.
type DetectionMethod string

const (
	MethodAbsoluteBounds DetectionMethod = "absolute_bounds"
	MethodZScore         DetectionMethod = "zscore"
)

// DetectionConfidence tags how much data backed a detection.
type DetectionConfidence string

const (
	DetectionLow    DetectionConfidence = "low"
	DetectionMedium DetectionConfidence = "medium"
	DetectionHigh   DetectionConfidence = "high"
)

// AnomalyResult explains a detection decision. The expected range is always
// populated so a consumer can explain why a value was flagged, never just a
// boolean. TailProbability is the two-sided normal tail mass beyond the
// observed z-score; nil outside the z-score regime.
type AnomalyResult struct {
	IsAnomaly       bool                `json:"is_anomaly"`
	Method          DetectionMethod     `json:"method"`
	Observed        float64             `json:"observed"`
	ZScore          *float64            `json:"z_score"`
	TailProbability *float64            `json:"tail_probability,omitempty"`
	ExpectedLow     float64             `json:"expected_low"`
	ExpectedHigh    float64             `json:"expected_high"`
	Confidence      DetectionConfidence `json:"confidence"`
}

// ============================================================================
// ALERTS
// ============================================================================

// AlertType distinguishes order anomalies from yield outliers.
type AlertType string

const (
	AlertOrderAnomaly AlertType = "order_anomaly"
	AlertYieldOutlier AlertType = "yield_outlier"
)

// AlertStatus is pending until an operator dismisses the alert. Append-only:
// the only mutation alerts ever see is the pending -> dismissed transition.
type AlertStatus string

const (
	AlertPending   AlertStatus = "pending"
	AlertDismissed AlertStatus = "dismissed"
)

// Alert is the ephemeral record emitted when the detector flags an event.
type Alert struct {
	ID          core.AlertID   `json:"id"`
	Type        AlertType      `json:"type"`
	CustomerKey CustomerKey    `json:"customer_key,omitempty"`
	CropKey     CropKey        `json:"crop_key"`
	Detection   AnomalyResult  `json:"detection"`
	Status      AlertStatus    `json:"status"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewAlert builds a pending alert from a detection.
func NewAlert(alertType AlertType, customer CustomerKey, crop CropKey, detection AnomalyResult) *Alert {
	return &Alert{
		ID:          core.NewAlertID(),
		Type:        alertType,
		CustomerKey: customer,
		CropKey:     crop,
		Detection:   detection,
		Status:      AlertPending,
		CreatedAt:   core.Now(),
	}
}

// ============================================================================
// DASHBOARD
// ============================================================================

// DashboardSummary is the tenant-wide aggregate rebuilt wholesale by the
// nightly pass. Never patched incrementally, so every publication is
// internally consistent with a single snapshot in time.
type DashboardSummary struct {
	GeneratedAt core.Timestamp `json:"generated_at"`

	PairCount     int `json:"pair_count"`
	PredictedKeys int `json:"predicted_keys"` // pairs with at least one observation folded into the EWMA
	CropCount     int `json:"crop_count"`

	AvgConfidence    float64 `json:"avg_confidence"`
	MedianConfidence float64 `json:"median_confidence"`
	P90Confidence    float64 `json:"p90_confidence"`

	ConfidenceCounts map[ConfidenceLevel]int `json:"confidence_counts"`
	TrendCounts      map[TrendDirection]int  `json:"trend_counts"`

	MeanAbsPercentError float64 `json:"mean_abs_percent_error"`

	SkippedKeys int `json:"skipped_keys"` // records that failed recomputation and were skipped
}
