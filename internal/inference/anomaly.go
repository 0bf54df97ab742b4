package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"croplearn/domain/learning"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// CheckOrderAnomaly evaluates a new order quantity against the distribution as
// it stood before the observation is folded in, so the first anomalous order
// is itself judged fairly.
func CheckOrderAnomaly(stats *learning.CustomerCropStats, quantity float64, params learning.Params) learning.AnomalyResult {
	return detect(stats.Quantity, quantity, params)
}

// CheckYieldOutlier evaluates a new harvest yield against the crop's pre-update
// yield distribution.
func CheckYieldOutlier(profile *learning.YieldProfile, yield float64, params learning.Params) learning.AnomalyResult {
	return detect(profile.Yield, yield, params)
}

// detect is the two-regime detector. Cold start uses absolute bounds around
// the running mean; steady state uses a z-score with a count-dependent
// threshold. Zero mean and zero stddev are explicitly neutral: with no
// informative baseline nothing is flagged. The result always carries the
// expected range so consumers can explain a flag, never just a boolean.
func detect(m learning.Moments, value float64, params learning.Params) learning.AnomalyResult {
	if m.Count < params.ColdStartOrders {
		return detectColdStart(m, value, params)
	}
	return detectZScore(m, value, params)
}

func detectColdStart(m learning.Moments, value float64, params learning.Params) learning.AnomalyResult {
	result := learning.AnomalyResult{
		Method:     learning.MethodAbsoluteBounds,
		Observed:   value,
		Confidence: learning.DetectionLow,
	}

	if m.Mean <= 0 {
		// No informative baseline yet; never flag.
		return result
	}

	result.ExpectedLow = params.ColdLowMultiplier * m.Mean
	result.ExpectedHigh = params.ColdHighMultiplier * m.Mean
	result.IsAnomaly = value > result.ExpectedHigh || value < result.ExpectedLow
	return result
}

func detectZScore(m learning.Moments, value float64, params learning.Params) learning.AnomalyResult {
	threshold := params.ZThresholdEarly
	confidence := learning.DetectionMedium
	if m.Count >= params.HighConfOrders {
		threshold = params.ZThresholdSteady
		confidence = learning.DetectionHigh
	}

	result := learning.AnomalyResult{
		Method:       learning.MethodZScore,
		Observed:     value,
		Confidence:   confidence,
		ExpectedLow:  math.Max(0, m.Mean-threshold*m.StdDev()),
		ExpectedHigh: m.Mean + threshold*m.StdDev(),
	}

	stddev := m.StdDev()
	if stddev == 0 {
		// Degenerate variance: a perfectly constant history gives no scale
		// to measure deviation against, so nothing is flagged.
		return result
	}

	z := (value - m.Mean) / stddev
	tail := 2 * stdNormal.Survival(math.Abs(z))

	result.ZScore = &z
	result.TailProbability = &tail
	result.IsAnomaly = math.Abs(z) > threshold
	return result
}
