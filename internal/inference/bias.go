package inference

import (
	"math"

	"croplearn/domain/learning"
)

// ScorePrediction updates the prediction-accuracy accumulators after a new
// actual quantity arrives. predicted is the EWMA as it stood before this
// observation; the first order for a key has no prediction to score.
func ScorePrediction(stats *learning.CustomerCropStats, predicted, actual float64, params learning.Params) {
	signedError := actual - predicted
	stats.RunningBias = params.BiasAlpha*signedError + (1-params.BiasAlpha)*stats.RunningBias

	if actual != 0 {
		stats.TotalPredictions++
		stats.SumAbsPercentError += math.Abs(signedError) / actual * 100
	}
}

// BiasAdjusted returns the prediction surfaced to consumers. When the running
// bias has drifted beyond the activation threshold the EWMA is corrected at
// presentation time; the stored EWMA stays untouched so the predictor state is
// never contaminated by its own correction.
func BiasAdjusted(stats *learning.CustomerCropStats, params learning.Params) (adjusted float64, corrected bool) {
	if stats.EWMA == nil {
		return 0, false
	}
	ewma := *stats.EWMA
	if math.Abs(stats.RunningBias) <= params.BiasActivation {
		return ewma, false
	}
	return ewma * (1 + stats.RunningBias/100), true
}
