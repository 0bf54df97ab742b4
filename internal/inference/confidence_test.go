package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"croplearn/domain/core"
	"croplearn/domain/learning"
)

func TestConfidenceEmptyRecordIsZero(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()

	score, breakdown := Confidence(stats, core.Now(), params)
	assert.Zero(t, score)
	assert.Zero(t, breakdown.DataQuantity)
	assert.Zero(t, breakdown.Recency)
}

func TestConfidenceComponentsAreCapped(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()

	when := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		ApplyOrder(stats, 10, core.NewTimestamp(when), params)
		when = when.AddDate(0, 0, 7)
	}

	now := stats.LastOrderDate
	score, breakdown := Confidence(stats, now, params)

	assert.Equal(t, 25.0, breakdown.DataQuantity, "quantity component maxes out, never exceeds 25")
	assert.Equal(t, 25.0, breakdown.Consistency, "constant quantities have zero CV")
	assert.Equal(t, 25.0, breakdown.Recency, "ordered today")
	assert.Equal(t, 25.0, breakdown.Regularity, "perfect weekly cadence")
	assert.Equal(t, 100.0, score)
	assert.Equal(t, learning.ConfidenceHigh, Level(score))
}

func TestConfidenceRecencyDecay(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()
	feedOrders(t, stats, []float64{10, 10, 10, 10, 10, 10})

	fresh, _ := Confidence(stats, stats.LastOrderDate, params)
	stale, _ := Confidence(stats, core.NewTimestamp(stats.LastOrderDate.Time().AddDate(0, 0, 120)), params)

	assert.Greater(t, fresh, stale)
	assert.GreaterOrEqual(t, stale, 0.0)

	_, breakdown := Confidence(stats, core.NewTimestamp(stats.LastOrderDate.Time().AddDate(0, 0, 120)), params)
	assert.Zero(t, breakdown.Recency, "beyond the horizon the component floors at zero")
}

func TestConfidenceVolatileQuantities(t *testing.T) {
	params := learning.DefaultParams()
	steady := newStats()
	feedOrders(t, steady, []float64{10, 10, 10, 10, 10})

	volatile := newStats()
	feedOrders(t, volatile, []float64{2, 30, 5, 25, 1})

	now := steady.LastOrderDate
	_, steadyBreakdown := Confidence(steady, now, params)
	_, volatileBreakdown := Confidence(volatile, now, params)

	assert.Greater(t, steadyBreakdown.Consistency, volatileBreakdown.Consistency)
}

func TestConfidenceBoundedWithFutureDatedOrders(t *testing.T) {
	params := learning.DefaultParams()
	stats := newStats()

	// Backfilled streams can carry order dates ahead of the wall clock.
	when := time.Now().AddDate(0, 0, 90)
	for i := 0; i < 25; i++ {
		ApplyOrder(stats, 10, core.NewTimestamp(when), params)
		when = when.AddDate(0, 0, 7)
	}

	score, breakdown := Confidence(stats, core.Now(), params)

	for name, component := range map[string]float64{
		"data_quantity": breakdown.DataQuantity,
		"consistency":   breakdown.Consistency,
		"recency":       breakdown.Recency,
		"regularity":    breakdown.Regularity,
	} {
		assert.GreaterOrEqual(t, component, 0.0, name)
		assert.LessOrEqual(t, component, 25.0, name)
	}
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
	assert.Equal(t, 25.0, breakdown.Recency, "an order newer than now counts as fully recent")
}

func TestLevelBands(t *testing.T) {
	assert.Equal(t, learning.ConfidenceHigh, Level(70))
	assert.Equal(t, learning.ConfidenceMedium, Level(69.9))
	assert.Equal(t, learning.ConfidenceMedium, Level(40))
	assert.Equal(t, learning.ConfidenceLow, Level(39.9))
	assert.Equal(t, learning.ConfidenceLow, Level(0))
}
