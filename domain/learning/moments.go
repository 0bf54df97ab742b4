package learning

import "math"

// Moments is an incremental mean/variance accumulator (Welford's algorithm).
// It never stores observations, so updates are O(1) and numerically stable for
// long streams: the second moment is accumulated from deviations, not from a
// sum of squares, which avoids catastrophic cancellation.
type Moments struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
}

// Observe folds a new value into the accumulator.
func (m *Moments) Observe(value float64) {
	m.Count++
	delta := value - m.Mean
	m.Mean += delta / float64(m.Count)
	delta2 := value - m.Mean
	m.M2 += delta * delta2
}

// Variance returns the sample variance, or 0 when fewer than two observations
// have been recorded.
func (m Moments) Variance() float64 {
	if m.Count < 2 {
		return 0
	}
	return m.M2 / float64(m.Count-1)
}

// StdDev returns the sample standard deviation, or 0 when undefined.
func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance())
}

// CV returns the coefficient of variation (stddev / mean), or 0 when the mean
// is zero or variance is undefined.
func (m Moments) CV() float64 {
	if m.Mean == 0 || m.Count < 2 {
		return 0
	}
	return m.StdDev() / m.Mean
}
