package inference

import (
	"math"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

// ApplyHarvest folds one harvest observation into a yield profile and
// recalculates the recommended buffer. Call CheckYieldOutlier before this so
// the detection sees the pre-update distribution.
func ApplyHarvest(profile *learning.YieldProfile, yield float64, harvestDate core.Timestamp, params learning.Params) {
	profile.Yield.Observe(yield)

	next := NextEWMA(profile.ActualYieldEstimate, yield, params.YieldAlpha)
	profile.ActualYieldEstimate = &next

	profile.AdjustedBufferPercent = BufferPercent(profile, params)
	profile.LastHarvestDate = harvestDate
}

// BufferPercent converts harvest-yield variance into a recommended production
// buffer percentage: a tight buffer for consistent yields, a wide one for
// volatile ones. With too few harvests the fixed default stands, and the
// result is always clamped to the configured range so a perfectly consistent
// crop still carries a minimum safety margin.
func BufferPercent(profile *learning.YieldProfile, params learning.Params) int {
	if profile.Yield.Count < params.MinHarvestsBuffer {
		return params.DefaultBufferPct
	}
	if profile.Yield.Mean == 0 {
		return params.DefaultBufferPct
	}

	cv := profile.Yield.StdDev() / profile.Yield.Mean
	buffer := int(math.Round(params.BufferCVMultiplier * cv * 100))

	if buffer < params.BufferMinPct {
		return params.BufferMinPct
	}
	if buffer > params.BufferMaxPct {
		return params.BufferMaxPct
	}
	return buffer
}
