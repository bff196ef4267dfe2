package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process, append-only Store used in tests and, by
// cmd/oracled, as the fallback when the Supabase client cannot be built.
// It always reports Configured() == true.
type MemoryStore struct {
	mu       sync.Mutex
	hardware []HardwareRecord
	rental   []RentalRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Configured() bool { return true }

func (m *MemoryStore) InsertHardware(_ context.Context, assetID string, timestamp int64, price, twapValue float64, sourceCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hardware = append(m.hardware, HardwareRecord{
		AssetID: assetID, Timestamp: timestamp, Price: price, TWAP: twapValue, SourceCount: sourceCount,
	})
	return nil
}

func (m *MemoryStore) RangeHardware(_ context.Context, q RangeQuery) ([]HardwareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}

	matched := make([]HardwareRecord, 0)
	for _, r := range m.hardware {
		if q.SeriesKey != "" && r.AssetID != q.SeriesKey {
			continue
		}
		if q.StartTime > 0 && r.Timestamp < q.StartTime {
			continue
		}
		if q.EndTime > 0 && r.Timestamp > q.EndTime {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp < matched[j].Timestamp })
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (m *MemoryStore) HardwareStats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return statsFromHardware(m.hardware), nil
}

func (m *MemoryStore) InsertRental(_ context.Context, gpuType string, timestamp int64, avgPrice, minPrice, maxPrice float64, offerCount int, interruptibleAvg, onDemandAvg float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rental = append(m.rental, RentalRecord{
		GPUType: gpuType, Timestamp: timestamp, AvgPrice: avgPrice, MinPrice: minPrice, MaxPrice: maxPrice,
		OfferCount: offerCount, InterruptibleAvg: interruptibleAvg, OnDemandAvg: onDemandAvg,
	})
	return nil
}

func (m *MemoryStore) RangeRental(_ context.Context, q RangeQuery) ([]RentalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}

	matched := make([]RentalRecord, 0)
	for _, r := range m.rental {
		if q.SeriesKey != "" && r.GPUType != q.SeriesKey {
			continue
		}
		if q.StartTime > 0 && r.Timestamp < q.StartTime {
			continue
		}
		if q.EndTime > 0 && r.Timestamp > q.EndTime {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp < matched[j].Timestamp })
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (m *MemoryStore) RentalStats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return statsFromRental(m.rental), nil
}

func statsFromHardware(records []HardwareRecord) Stats {
	stats := Stats{CountBySeries: make(map[string]int)}
	for _, r := range records {
		stats.Total++
		stats.CountBySeries[r.AssetID]++
		if stats.OldestTime == 0 || r.Timestamp < stats.OldestTime {
			stats.OldestTime = r.Timestamp
		}
		if r.Timestamp > stats.NewestTime {
			stats.NewestTime = r.Timestamp
		}
	}
	return stats
}

func statsFromRental(records []RentalRecord) Stats {
	stats := Stats{CountBySeries: make(map[string]int)}
	for _, r := range records {
		stats.Total++
		stats.CountBySeries[r.GPUType]++
		if stats.OldestTime == 0 || r.Timestamp < stats.OldestTime {
			stats.OldestTime = r.Timestamp
		}
		if r.Timestamp > stats.NewestTime {
			stats.NewestTime = r.Timestamp
		}
	}
	return stats
}

var _ Store = (*MemoryStore)(nil)
