package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamIsDeterministicPerSeed(t *testing.T) {
	cfg := DefaultStreamConfig()

	a := NewStreamGenerator(cfg).Orders()
	b := NewStreamGenerator(cfg).Orders()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Customer, b[i].Customer)
		assert.Equal(t, a[i].Lines[0].Quantity, b[i].Lines[0].Quantity)
		assert.Equal(t, a[i].OrderDate, b[i].OrderDate)
	}

	cfg.Seed = 7
	c := NewStreamGenerator(cfg).Orders()
	different := false
	for i := range a {
		if a[i].Lines[0].Quantity != c[i].Lines[0].Quantity {
			different = true
			break
		}
	}
	assert.True(t, different, "a different seed produces different quantities")
}

func TestStreamShapeMatchesConfig(t *testing.T) {
	cfg := DefaultStreamConfig()
	cfg.CustomerCount = 3
	cfg.CropCount = 2
	cfg.OrdersPerPair = 4
	cfg.HarvestsPerCrop = 5

	gen := NewStreamGenerator(cfg)
	orders := gen.Orders()
	harvests := gen.Harvests()

	assert.Len(t, orders, 3*2*4)
	assert.Len(t, harvests, 2*5)

	for _, event := range orders {
		require.NoError(t, event.Validate())
	}
	for _, event := range harvests {
		require.NoError(t, event.Validate())
	}
}

func TestOrdersSortedByDate(t *testing.T) {
	orders := NewStreamGenerator(DefaultStreamConfig()).Orders()
	for i := 1; i < len(orders); i++ {
		assert.False(t, orders[i].OrderDate.Before(orders[i-1].OrderDate))
	}
}
