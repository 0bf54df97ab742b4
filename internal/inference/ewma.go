// Package inference holds the pure computations of the learning engine:
// smoothing, trend, bias correction, anomaly detection, confidence scoring and
// yield buffering. Every function is deterministic and side-effect free apart
// from mutating the record it is handed; nothing here touches a store, a clock,
// or a logger.
package inference

import (
	"croplearn/domain/learning"
)

// SelectAlpha picks the EWMA smoothing factor for a stats record: fast
// adaptation during cold start, more smoothing for biweekly-or-slower
// cadences, and the weekly-cadence default otherwise.
func SelectAlpha(stats *learning.CustomerCropStats, params learning.Params) float64 {
	if stats.Quantity.Count < params.ColdStartOrders {
		return params.AlphaColdStart
	}
	if stats.Interval.Count > 0 && stats.Interval.Mean > params.SlowCadenceDays {
		return params.AlphaSlowCadence
	}
	return params.AlphaDefault
}

// NextEWMA folds a new observation into an exponentially weighted moving
// average. With no prior value the observation is adopted verbatim; no
// smoothing is possible with one point.
func NextEWMA(prev *float64, value, alpha float64) float64 {
	if prev == nil {
		return value
	}
	return alpha*value + (1-alpha)*(*prev)
}
