package inference

import (
	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// ApplyOrder folds one order observation into a stats record. Update order is
// fixed: quantity moments, interval, trend, EWMA, then bias scoring. The
// caller runs anomaly detection against the record before calling this, and
// holds the per-key lock for the whole read-modify-write.
func ApplyOrder(stats *learning.CustomerCropStats, quantity float64, orderDate core.Timestamp, params learning.Params) {
	prevEWMA := stats.EWMA
	prevOrderDate := stats.LastOrderDate
	hadOrders := stats.Quantity.Count > 0

	stats.Quantity.Observe(quantity)

	// No interval exists before a second order.
	if hadOrders && !prevOrderDate.IsZero() {
		stats.Interval.Observe(orderDate.DaysSince(prevOrderDate))
	}

	ObserveTrend(stats, quantity)

	alpha := SelectAlpha(stats, params)
	next := NextEWMA(prevEWMA, quantity, alpha)
	stats.EWMA = &next
	stats.EWMAAlpha = alpha

	// The prior EWMA was the prediction for this order; score it now that the
	// actual arrived. The first order has no prediction to score.
	if prevEWMA != nil {
		ScorePrediction(stats, *prevEWMA, quantity, params)
	}

	if !hadOrders {
		stats.FirstOrderDate = orderDate
	}
	stats.LastOrderDate = orderDate
	stats.LastQuantity = quantity
}

// Predict assembles the per-key forecast surfaced to consumers: the raw EWMA,
// the bias-corrected value, composite confidence, and trend.
func Predict(stats *learning.CustomerCropStats, now core.Timestamp, params learning.Params) learning.Prediction {
	adjusted, corrected := BiasAdjusted(stats, params)
	score, breakdown := Confidence(stats, now, params)

	return learning.Prediction{
		CustomerKey:     stats.CustomerKey,
		CropKey:         stats.CropKey,
		EWMA:            stats.EWMA,
		Adjusted:        adjusted,
		Corrected:       corrected,
		RunningBias:     stats.RunningBias,
		ConfidenceScore: score,
		ConfidenceLevel: Level(score),
		Breakdown:       breakdown,
		Trend:           TrendOf(stats, params),
		MAPE:            stats.MAPE(),
	}
}
