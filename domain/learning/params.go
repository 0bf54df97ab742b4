package learning

import "fmt"

// Params collects every tunable constant of the learning engine. The source
// values were hand-tuned on one dataset, so none of them are hard-coded:
// callers get DefaultParams and may override per deployment.
type Params struct {
	// Cold start / regime selection
	ColdStartOrders   int64 `json:"cold_start_orders"`   // below this, absolute-bounds detection and fast EWMA
	HighConfOrders    int64 `json:"high_conf_orders"`    // at or above this, tighter z threshold and high detection confidence
	TrendMinOrders    int64 `json:"trend_min_orders"`    // below this, trend is insufficient_data and slope is withheld
	MinHarvestsBuffer int64 `json:"min_harvests_buffer"` // below this, yield buffer stays at the default

	// Anomaly detection
	ColdHighMultiplier float64 `json:"cold_high_multiplier"` // cold start: anomalous above mean * this
	ColdLowMultiplier  float64 `json:"cold_low_multiplier"`  // cold start: anomalous below mean * this
	ZThresholdEarly    float64 `json:"z_threshold_early"`    // z threshold while count < HighConfOrders
	ZThresholdSteady   float64 `json:"z_threshold_steady"`   // z threshold at or above HighConfOrders

	// EWMA smoothing schedule
	AlphaColdStart   float64 `json:"alpha_cold_start"`   // while count < ColdStartOrders
	AlphaSlowCadence float64 `json:"alpha_slow_cadence"` // avg interval above SlowCadenceDays
	AlphaDefault     float64 `json:"alpha_default"`      // weekly-cadence default
	SlowCadenceDays  float64 `json:"slow_cadence_days"`  // interval mean above this means biweekly-or-slower
	YieldAlpha       float64 `json:"yield_alpha"`        // smoothing for the harvested-yield estimate

	// Bias correction
	BiasAlpha      float64 `json:"bias_alpha"`      // smoothing of the signed prediction error
	BiasActivation float64 `json:"bias_activation"` // |runningBias| above this activates correction

	// Trend classification
	TrendThresholdPct float64 `json:"trend_threshold_pct"` // weekly change beyond +/- this is a trend

	// Confidence scoring
	FullDataOrders     int64   `json:"full_data_orders"`     // count at which the quantity component maxes out
	RecencyHorizonDays float64 `json:"recency_horizon_days"` // decay horizon for the recency component

	// Yield buffer
	DefaultBufferPct   int     `json:"default_buffer_pct"`
	BufferMinPct       int     `json:"buffer_min_pct"`
	BufferMaxPct       int     `json:"buffer_max_pct"`
	BufferCVMultiplier float64 `json:"buffer_cv_multiplier"`
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		ColdStartOrders:   5,
		HighConfOrders:    10,
		TrendMinOrders:    4,
		MinHarvestsBuffer: 3,

		ColdHighMultiplier: 5.0,
		ColdLowMultiplier:  0.1,
		ZThresholdEarly:    3.0,
		ZThresholdSteady:   2.5,

		AlphaColdStart:   0.40,
		AlphaSlowCadence: 0.15,
		AlphaDefault:     0.25,
		SlowCadenceDays:  10.0,
		YieldAlpha:       0.25,

		BiasAlpha:      0.3,
		BiasActivation: 10.0,

		TrendThresholdPct: 5.0,

		FullDataOrders:     20,
		RecencyHorizonDays: 84.0,

		DefaultBufferPct:   15,
		BufferMinPct:       5,
		BufferMaxPct:       30,
		BufferCVMultiplier: 1.5,
	}
}

// Validate rejects parameter sets that would break numeric guards.
func (p Params) Validate() error {
	if p.ColdStartOrders < 1 {
		return fmt.Errorf("cold_start_orders must be >= 1, got %d", p.ColdStartOrders)
	}
	if p.HighConfOrders < p.ColdStartOrders {
		return fmt.Errorf("high_conf_orders (%d) must be >= cold_start_orders (%d)", p.HighConfOrders, p.ColdStartOrders)
	}
	if p.ColdHighMultiplier <= 1 {
		return fmt.Errorf("cold_high_multiplier must be > 1, got %f", p.ColdHighMultiplier)
	}
	if p.ColdLowMultiplier < 0 || p.ColdLowMultiplier >= 1 {
		return fmt.Errorf("cold_low_multiplier must be in [0, 1), got %f", p.ColdLowMultiplier)
	}
	for name, alpha := range map[string]float64{
		"alpha_cold_start":   p.AlphaColdStart,
		"alpha_slow_cadence": p.AlphaSlowCadence,
		"alpha_default":      p.AlphaDefault,
		"yield_alpha":        p.YieldAlpha,
		"bias_alpha":         p.BiasAlpha,
	} {
		if alpha <= 0 || alpha > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %f", name, alpha)
		}
	}
	if p.ZThresholdEarly <= 0 || p.ZThresholdSteady <= 0 {
		return fmt.Errorf("z thresholds must be positive")
	}
	if p.RecencyHorizonDays <= 0 {
		return fmt.Errorf("recency_horizon_days must be positive, got %f", p.RecencyHorizonDays)
	}
	if p.BufferMinPct < 0 || p.BufferMaxPct < p.BufferMinPct {
		return fmt.Errorf("buffer clamp [%d, %d] is invalid", p.BufferMinPct, p.BufferMaxPct)
	}
	return nil
}
