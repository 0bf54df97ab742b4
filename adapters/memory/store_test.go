package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croplearn/domain/learning"
)

func TestGetPairMissReturnsNilNil(t *testing.T) {
	store := NewStore()
	stats, err := store.GetPair(context.Background(), learning.PairKey{Customer: "a", Crop: "b"})
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestPutGetRoundTripIsIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	pair := learning.PairKey{Customer: "jane@example.com", Crop: "basil"}
	stats := learning.NewCustomerCropStats(pair, "Jane", "Basil")
	stats.Quantity.Observe(10)
	require.NoError(t, store.PutPair(ctx, stats))

	// Mutating the caller's record after Put must not leak into the store.
	stats.Quantity.Observe(999)

	stored, err := store.GetPair(ctx, pair)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.Quantity.Count)

	// Mutating a Get result must not leak either.
	stored.Quantity.Observe(999)
	again, err := store.GetPair(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Quantity.Count)
}

func TestListPairsIsSnapshot(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		pair := learning.PairKey{Customer: learning.CustomerKey(key), Crop: "basil"}
		require.NoError(t, store.PutPair(ctx, learning.NewCustomerCropStats(pair, "", "")))
	}

	listed, err := store.ListPairs(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	listed[0].Quantity.Observe(42)
	fresh, err := store.GetPair(ctx, listed[0].Pair())
	require.NoError(t, err)
	assert.Zero(t, fresh.Quantity.Count)
}

func TestYieldProfileRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	missing, err := store.GetYieldProfile(ctx, "basil")
	require.NoError(t, err)
	assert.Nil(t, missing)

	profile := learning.NewYieldProfile("basil", "Basil", 8, 15)
	profile.Yield.Observe(7.5)
	require.NoError(t, store.PutYieldProfile(ctx, profile))

	stored, err := store.GetYieldProfile(ctx, "basil")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.Yield.Count)

	profiles, err := store.ListYieldProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestAlertLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a := learning.NewAlert(learning.AlertOrderAnomaly, "jane", "basil", learning.AnomalyResult{IsAnomaly: true})
	b := learning.NewAlert(learning.AlertYieldOutlier, "", "basil", learning.AnomalyResult{IsAnomaly: true})
	require.NoError(t, store.Append(ctx, a))
	require.NoError(t, store.Append(ctx, b))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.Dismiss(ctx, a.ID))
	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	n, err := store.DismissAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDashboardLatest(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "no summary before the first publish")

	require.NoError(t, store.Publish(ctx, &learning.DashboardSummary{PairCount: 3}))
	require.NoError(t, store.Publish(ctx, &learning.DashboardSummary{PairCount: 7}))

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 7, latest.PairCount, "publish replaces wholesale")
}

func TestDashboardCountMapsAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	published := &learning.DashboardSummary{
		ConfidenceCounts: map[learning.ConfidenceLevel]int{learning.ConfidenceHigh: 2},
		TrendCounts:      map[learning.TrendDirection]int{learning.TrendStable: 5},
	}
	require.NoError(t, store.Publish(ctx, published))

	// Mutating the caller's maps after Publish must not leak into the store.
	published.ConfidenceCounts[learning.ConfidenceHigh] = 99
	published.TrendCounts[learning.TrendStable] = 99

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.ConfidenceCounts[learning.ConfidenceHigh])
	assert.Equal(t, 5, latest.TrendCounts[learning.TrendStable])

	// Mutating a Latest result must not leak either.
	latest.ConfidenceCounts[learning.ConfidenceHigh] = 42
	again, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.ConfidenceCounts[learning.ConfidenceHigh])
}
