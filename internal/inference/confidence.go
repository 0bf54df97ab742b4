package inference

import (
	"math"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// componentMax is the cap per confidence component; four components sum to 100.
const componentMax = 25.0

// Confidence computes the composite 0-100 prediction confidence for a record
// at a given reference time. Each component is independently capped at 25:
// data quantity, order-size consistency, recency, and cadence regularity.
// Missing history contributes the worst case (0) rather than an error.
func Confidence(stats *learning.CustomerCropStats, now core.Timestamp, params learning.Params) (float64, learning.ConfidenceBreakdown) {
	breakdown := learning.ConfidenceBreakdown{
		DataQuantity: dataQuantityScore(stats, params),
		Consistency:  consistencyScore(stats),
		Recency:      recencyScore(stats, now, params),
		Regularity:   regularityScore(stats),
	}
	total := breakdown.DataQuantity + breakdown.Consistency + breakdown.Recency + breakdown.Regularity
	return total, breakdown
}

// Level bands a composite score. The band drives whether a prediction is
// surfaced as actionable to an operator.
func Level(score float64) learning.ConfidenceLevel {
	switch {
	case score >= 70:
		return learning.ConfidenceHigh
	case score >= 40:
		return learning.ConfidenceMedium
	default:
		return learning.ConfidenceLow
	}
}

func dataQuantityScore(stats *learning.CustomerCropStats, params learning.Params) float64 {
	ratio := float64(stats.Quantity.Count) / float64(params.FullDataOrders)
	return math.Min(ratio, 1) * componentMax
}

func consistencyScore(stats *learning.CustomerCropStats) float64 {
	if stats.Quantity.Count < 2 || stats.Quantity.Mean == 0 {
		return 0
	}
	cv := stats.Quantity.StdDev() / stats.Quantity.Mean
	return componentMax * (1 - math.Min(cv, 1))
}

func recencyScore(stats *learning.CustomerCropStats, now core.Timestamp, params learning.Params) float64 {
	if stats.LastOrderDate.IsZero() {
		return 0
	}
	// A future-dated last order (backfill clock skew) must not push the
	// component past its cap.
	daysSince := math.Max(0, now.DaysSince(stats.LastOrderDate))
	return componentMax * math.Max(0, 1-daysSince/params.RecencyHorizonDays)
}

func regularityScore(stats *learning.CustomerCropStats) float64 {
	if stats.Interval.Count == 0 || stats.Interval.Mean == 0 {
		return 0
	}
	ratio := stats.Interval.StdDev() / stats.Interval.Mean
	return componentMax * math.Max(0, 1-math.Min(ratio, 1))
}
