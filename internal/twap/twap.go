// Package twap implements the per-asset rolling time-weighted average
// calculator described in spec.md §4.4.
package twap

import (
	"sort"
	"sync"

	"github.com/hwpriced/oracle/internal/common"
)

const defaultWindowMs = 300_000

// Calculator holds a rolling window of (price, timestamp) samples per asset.
type Calculator struct {
	mu        sync.Mutex
	windowMs  int64
	nowMillis func() int64 // overridable for tests
	samples   map[string][]common.TWAPObservation
}

// NewCalculator builds a Calculator with the given window in milliseconds.
// A windowMs of 0 uses spec.md's default of 300,000ms (5 minutes).
func NewCalculator(windowMs int64) *Calculator {
	if windowMs <= 0 {
		windowMs = defaultWindowMs
	}
	return &Calculator{
		windowMs:  windowMs,
		nowMillis: common.NowMillis,
		samples:   make(map[string][]common.TWAPObservation),
	}
}

// AddObservation appends a sample then prunes anything older than the window.
// Callers must supply a timestamp >= any previously supplied timestamp for
// this asset.
func (c *Calculator) AddObservation(assetID string, price float64, timestamp int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[assetID] = append(c.samples[assetID], common.TWAPObservation{
		AssetID: assetID, Price: price, Timestamp: timestamp,
	})
	c.pruneLocked(assetID)
}

func (c *Calculator) pruneLocked(assetID string) {
	cutoff := c.nowMillis() - c.windowMs
	samples := c.samples[assetID]
	kept := samples[:0:0]
	for _, s := range samples {
		if s.Timestamp >= cutoff {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(c.samples, assetID)
		return
	}
	c.samples[assetID] = kept
}

// GetTWAP prunes, then returns the time-weighted average price for assetID.
// Returns (0, false) if no samples remain in the window.
func (c *Calculator) GetTWAP(assetID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(assetID)

	samples := c.samples[assetID]
	if len(samples) == 0 {
		return 0, false
	}
	if len(samples) == 1 {
		return samples[0].Price, true
	}

	sorted := append([]common.TWAPObservation(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	now := c.nowMillis()
	var weightedSum, totalWeight float64
	for i := 0; i < len(sorted); i++ {
		var width int64
		if i+1 < len(sorted) {
			width = sorted[i+1].Timestamp - sorted[i].Timestamp
		} else {
			width = now - sorted[i].Timestamp
		}
		if width < 0 {
			width = 0
		}
		weightedSum += sorted[i].Price * float64(width)
		totalWeight += float64(width)
	}

	if totalWeight == 0 {
		return sorted[len(sorted)-1].Price, true
	}
	return weightedSum / totalWeight, true
}

// GetSpotPrice prunes, then returns the observation with the greatest
// timestamp for assetID.
func (c *Calculator) GetSpotPrice(assetID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(assetID)

	samples := c.samples[assetID]
	if len(samples) == 0 {
		return 0, false
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp > latest.Timestamp {
			latest = s
		}
	}
	return latest.Price, true
}

// Clear drops all samples for one asset.
func (c *Calculator) Clear(assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.samples, assetID)
}

// ClearAll drops all samples for every asset.
func (c *Calculator) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = make(map[string][]common.TWAPObservation)
}

// SetClock overrides the calculator's notion of "now", for deterministic tests.
func (c *Calculator) SetClock(fn func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMillis = fn
}
