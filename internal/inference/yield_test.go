package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

func newProfile() *learning.YieldProfile {
	return learning.NewYieldProfile("basil", "Basil", 8, learning.DefaultParams().DefaultBufferPct)
}

func feedHarvests(profile *learning.YieldProfile, yields []float64) {
	params := learning.DefaultParams()
	when := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, y := range yields {
		ApplyHarvest(profile, y, core.NewTimestamp(when), params)
		when = when.AddDate(0, 0, 7)
	}
}

func TestBufferDefaultUnderMinimumHarvests(t *testing.T) {
	params := learning.DefaultParams()
	profile := newProfile()
	feedHarvests(profile, []float64{8, 9})

	assert.Equal(t, params.DefaultBufferPct, BufferPercent(profile, params))
}

func TestBufferClampsAtMinimumForConsistentYields(t *testing.T) {
	params := learning.DefaultParams()
	profile := newProfile()
	feedHarvests(profile, []float64{8, 8, 8})

	assert.Equal(t, params.BufferMinPct, BufferPercent(profile, params), "zero CV still carries a minimum margin")
}

func TestBufferScalesWithVariance(t *testing.T) {
	params := learning.DefaultParams()
	profile := newProfile()
	feedHarvests(profile, []float64{6, 8, 10, 7, 9})

	buffer := BufferPercent(profile, params)
	assert.Greater(t, buffer, params.BufferMinPct)
	assert.LessOrEqual(t, buffer, params.BufferMaxPct)

	cv := profile.Yield.StdDev() / profile.Yield.Mean
	assert.InDelta(t, params.BufferCVMultiplier*cv*100, float64(buffer), 0.5)
}

func TestBufferClampsAtMaximumForVolatileYields(t *testing.T) {
	params := learning.DefaultParams()
	profile := newProfile()
	feedHarvests(profile, []float64{1, 20, 2, 18, 1})

	assert.Equal(t, params.BufferMaxPct, BufferPercent(profile, params))
}

func TestApplyHarvestUpdatesEstimateAndBuffer(t *testing.T) {
	params := learning.DefaultParams()
	profile := newProfile()

	when := core.NewTimestamp(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	ApplyHarvest(profile, 6, when, params)

	require.NotNil(t, profile.ActualYieldEstimate)
	assert.Equal(t, 6.0, *profile.ActualYieldEstimate, "first harvest adopted verbatim")
	assert.Equal(t, when, profile.LastHarvestDate)

	ApplyHarvest(profile, 10, when, params)
	assert.InDelta(t, 0.25*10+0.75*6, *profile.ActualYieldEstimate, 1e-9)
	assert.Equal(t, params.DefaultBufferPct, profile.AdjustedBufferPercent, "buffer stays default below three harvests")
}
