package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
)

// MockAdapter is deterministic from its own internal state: it walks each
// asset's "current" price around the catalog base price and emits
// 3-7 observations per call with small inter-listing variance (spec.md §4.1).
type MockAdapter struct {
	mu         sync.Mutex
	rng        *rand.Rand
	current    map[string]float64
	volatility float64 // fraction of base price per call, default 0.02
}

// NewMockAdapter builds a MockAdapter seeded deterministically, so repeated
// rounds with the same seed reproduce the same walk (spec.md §8 property 7).
func NewMockAdapter(seed int64, volatility float64) *MockAdapter {
	if volatility <= 0 {
		volatility = 0.02
	}
	return &MockAdapter{
		rng:        rand.New(rand.NewSource(seed)),
		current:    make(map[string]float64),
		volatility: volatility,
	}
}

func (m *MockAdapter) Name() string { return "mock" }

func (m *MockAdapter) IsAvailable() bool { return true }

func (m *MockAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError("mock", common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.current[assetID]
	if !ok {
		base = asset.BasePrice
	}

	walk := (m.rng.Float64()*2 - 1) * m.volatility * asset.BasePrice
	next := base + walk
	if next < asset.BasePrice*0.5 {
		next = asset.BasePrice * 0.5
	}
	m.current[assetID] = next

	count := 3 + m.rng.Intn(5) // 3..7 inclusive
	now := common.NowMillis()
	observations := make([]common.Observation, 0, count)
	for i := 0; i < count; i++ {
		jitter := (m.rng.Float64()*2 - 1) * 0.01 * next
		observations = append(observations, common.Observation{
			AssetID:   assetID,
			Price:     next + jitter,
			Source:    m.Name(),
			Timestamp: now,
			Metadata: &common.ObservationMetadata{
				ProductName: fmt.Sprintf("%s (simulated listing %d)", asset.DisplayName, i+1),
				Seller:      "simulated-marketplace",
				Condition:   common.ConditionNew,
			},
		})
	}
	return observations, nil
}

// compile-time interface check
var _ SourceAdapter = (*MockAdapter)(nil)
