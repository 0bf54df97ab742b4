package learning

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMomentsMatchesBatchStatistics(t *testing.T) {
	samples := []float64{12, 9.5, 14, 10, 11.25, 8, 13.5, 10.75, 9, 12.5}

	var m Moments
	for _, v := range samples {
		m.Observe(v)
	}

	wantMean, err := stats.Mean(samples)
	require.NoError(t, err)
	wantStdDev, err := stats.StandardDeviationSample(samples)
	require.NoError(t, err)

	assert.Equal(t, int64(len(samples)), m.Count)
	assert.InDelta(t, wantMean, m.Mean, 1e-9)
	assert.InDelta(t, wantStdDev, m.StdDev(), 1e-9)
}

func TestMomentsUndefinedVarianceIsZero(t *testing.T) {
	var m Moments
	assert.Zero(t, m.StdDev())
	assert.Zero(t, m.Variance())

	m.Observe(42)
	assert.Zero(t, m.StdDev(), "one observation has no sample variance")
	assert.Equal(t, 42.0, m.Mean)
}

func TestMomentsConstantStream(t *testing.T) {
	var m Moments
	for i := 0; i < 5; i++ {
		m.Observe(10)
	}
	assert.Equal(t, 10.0, m.Mean)
	assert.Zero(t, m.StdDev())
	assert.Zero(t, m.CV())
}

func TestMomentsCV(t *testing.T) {
	var m Moments
	for _, v := range []float64{8, 10, 12} {
		m.Observe(v)
	}
	assert.InDelta(t, m.StdDev()/m.Mean, m.CV(), 1e-12)

	var zeroMean Moments
	zeroMean.Observe(-5)
	zeroMean.Observe(5)
	assert.Zero(t, zeroMean.CV(), "zero mean must not divide")
}
