package twap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clockAt(ms int64) func() int64 {
	return func() int64 { return ms }
}

func TestGetTWAPEmptyReturnsFalse(t *testing.T) {
	c := NewCalculator(300_000)
	_, ok := c.GetTWAP("GPU_RTX4090")
	assert.False(t, ok)
}

func TestGetTWAPSingleObservationReturnsThatPrice(t *testing.T) {
	c := NewCalculator(300_000)
	c.SetClock(clockAt(1_000_000))
	c.AddObservation("GPU_RTX4090", 1600, 1_000_000)

	price, ok := c.GetTWAP("GPU_RTX4090")
	assert.True(t, ok)
	assert.Equal(t, 1600.0, price)
}

func TestGetTWAPWeightsByIntervalDuration(t *testing.T) {
	// spec.md S3: price=100 held for 60s, then price=200 held for 30s up to now.
	c := NewCalculator(300_000)
	c.SetClock(clockAt(0))
	c.AddObservation("GPU_RTX4090", 100, 0)
	c.SetClock(clockAt(60_000))
	c.AddObservation("GPU_RTX4090", 200, 60_000)
	c.SetClock(clockAt(90_000))

	price, ok := c.GetTWAP("GPU_RTX4090")
	assert.True(t, ok)
	// (100*60000 + 200*30000) / 90000 = 133.33...
	assert.InDelta(t, 133.333333, price, 1e-3)
}

func TestGetTWAPPrunesOutsideWindow(t *testing.T) {
	c := NewCalculator(1000)
	c.SetClock(clockAt(0))
	c.AddObservation("GPU_RTX4090", 100, 0)
	c.SetClock(clockAt(5000))
	c.AddObservation("GPU_RTX4090", 200, 5000)

	price, ok := c.GetTWAP("GPU_RTX4090")
	assert.True(t, ok)
	assert.Equal(t, 200.0, price)
}

func TestGetTWAPAllPrunedReturnsFalse(t *testing.T) {
	c := NewCalculator(1000)
	c.SetClock(clockAt(0))
	c.AddObservation("GPU_RTX4090", 100, 0)
	c.SetClock(clockAt(50_000))

	_, ok := c.GetTWAP("GPU_RTX4090")
	assert.False(t, ok)
}

func TestGetSpotPriceReturnsLatest(t *testing.T) {
	c := NewCalculator(300_000)
	c.SetClock(clockAt(2000))
	c.AddObservation("GPU_RTX4090", 100, 1000)
	c.AddObservation("GPU_RTX4090", 150, 2000)

	price, ok := c.GetSpotPrice("GPU_RTX4090")
	assert.True(t, ok)
	assert.Equal(t, 150.0, price)
}

func TestClearRemovesAssetOnly(t *testing.T) {
	c := NewCalculator(300_000)
	c.SetClock(clockAt(1000))
	c.AddObservation("GPU_RTX4090", 100, 1000)
	c.AddObservation("GPU_A100", 2000, 1000)

	c.Clear("GPU_RTX4090")

	_, ok := c.GetTWAP("GPU_RTX4090")
	assert.False(t, ok)
	_, ok = c.GetTWAP("GPU_A100")
	assert.True(t, ok)
}
