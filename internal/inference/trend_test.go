package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croplearn/domain/learning"
)

func TestTrendWithheldBelowMinimum(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	feedOrders(t, stats, []float64{10, 11, 12})

	trend := TrendOf(stats, params)
	assert.Equal(t, learning.TrendInsufficientData, trend.Direction)
	assert.Nil(t, trend.Slope, "slope is withheld, not reported as zero")
	assert.Nil(t, trend.WeeklyChangePct)
}

func TestIncreasingTrend(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	feedOrders(t, stats, []float64{10, 12, 14, 16, 18, 20})

	trend := TrendOf(stats, params)
	assert.Equal(t, learning.TrendIncreasing, trend.Direction)
	require.NotNil(t, trend.Slope)
	assert.InDelta(t, 2.0, *trend.Slope, 1e-9)
	require.NotNil(t, trend.WeeklyChangePct)
	assert.Greater(t, *trend.WeeklyChangePct, params.TrendThresholdPct)
}

func TestDecreasingTrend(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	feedOrders(t, stats, []float64{20, 18, 16, 14, 12, 10})

	trend := TrendOf(stats, params)
	assert.Equal(t, learning.TrendDecreasing, trend.Direction)
	require.NotNil(t, trend.Slope)
	assert.InDelta(t, -2.0, *trend.Slope, 1e-9)
}

func TestDegenerateRegressionReportsFullShape(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	stats.Quantity.Count = params.TrendMinOrders
	stats.Quantity.Mean = 10

	// All points stacked on one x leave the regression denominator at zero.
	trend := TrendOf(stats, params)
	assert.Equal(t, learning.TrendStable, trend.Direction)
	require.NotNil(t, trend.Slope)
	assert.Zero(t, *trend.Slope)
	require.NotNil(t, trend.WeeklyChangePct, "the degenerate case reports the same fields as the regular one")
	assert.Zero(t, *trend.WeeklyChangePct)
}

func TestFlatHistoryIsStable(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	feedOrders(t, stats, []float64{10, 10.1, 9.9, 10, 10.05, 9.95})

	trend := TrendOf(stats, params)
	assert.Equal(t, learning.TrendStable, trend.Direction)
	require.NotNil(t, trend.WeeklyChangePct)
	assert.Less(t, *trend.WeeklyChangePct, params.TrendThresholdPct)
	assert.Greater(t, *trend.WeeklyChangePct, -params.TrendThresholdPct)
}
