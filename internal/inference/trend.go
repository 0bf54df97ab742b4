package inference

import (
	"croplearn/domain/learning"
)

// ObserveTrend folds one (order index, quantity) point into the record's
// incremental regression accumulators. The index is the 1-based position of
// the order in the key's stream, so it must be called after the quantity
// moments have been updated.
func ObserveTrend(stats *learning.CustomerCropStats, quantity float64) {
	x := float64(stats.Quantity.Count)
	stats.SumX += x
	stats.SumY += quantity
	stats.SumXY += x * quantity
	stats.SumX2 += x * x
}

// TrendOf classifies demand direction from the regression accumulators.
// Below the minimum order count the direction is insufficient_data and the
// slope is withheld entirely rather than reported as 0, which would imply a
// confidence that does not exist.
func TrendOf(stats *learning.CustomerCropStats, params learning.Params) learning.TrendSummary {
	if stats.Quantity.Count < params.TrendMinOrders {
		return learning.TrendSummary{Direction: learning.TrendInsufficientData}
	}

	n := float64(stats.Quantity.Count)
	denominator := n*stats.SumX2 - stats.SumX*stats.SumX
	if denominator == 0 {
		slope := 0.0
		weeklyChangePct := 0.0
		return learning.TrendSummary{
			Direction:       learning.TrendStable,
			Slope:           &slope,
			WeeklyChangePct: &weeklyChangePct,
		}
	}

	slope := (n*stats.SumXY - stats.SumX*stats.SumY) / denominator

	weeklyChangePct := 0.0
	if stats.Quantity.Mean != 0 {
		weeklyChangePct = (slope / stats.Quantity.Mean) * 100
	}

	direction := learning.TrendStable
	switch {
	case weeklyChangePct > params.TrendThresholdPct:
		direction = learning.TrendIncreasing
	case weeklyChangePct < -params.TrendThresholdPct:
		direction = learning.TrendDecreasing
	}

	return learning.TrendSummary{
		Direction:       direction,
		Slope:           &slope,
		WeeklyChangePct: &weeklyChangePct,
	}
}
