// Package rental computes fused rental-GPU price statistics from raw
// marketplace offers and serves them through a process-local TTL cache.
package rental

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hwpriced/oracle/internal/adapters"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/history"
)

const cacheTTL = 60 * time.Second
const cacheCleanupInterval = 5 * time.Minute
const statsCacheKey = "rental-prices"

// SourceClass labels where a rental price snapshot came from, echoed at
// the API layer (spec.md §9).
type SourceClass string

const (
	SourceSupabase      SourceClass = "supabase"
	SourceSimulated     SourceClass = "simulated"
	SourceOracleService SourceClass = "oracle-service"
)

// Snapshot is the cached, all-types rental price result.
type Snapshot struct {
	Stats     map[string]common.RentalPriceStats
	Source    SourceClass
	Timestamp int64
}

// Service computes rental price stats on demand and caches the full-catalog
// result for cacheTTL (spec.md §4.8).
type Service struct {
	adapter *adapters.RentalAdapter
	cache   *gocache.Cache
	history history.RentalStore
}

// NewService builds a Service. history may be nil; when non-nil and
// Configured(), freshly fetched (non-fallback) snapshots are labeled
// SourceSupabase since they are the ones persistRentalSnapshot durably
// persists (spec.md §4.8, §9).
func NewService(adapter *adapters.RentalAdapter, rentalHistory history.RentalStore) *Service {
	return &Service{
		adapter: adapter,
		cache:   gocache.New(cacheTTL, cacheCleanupInterval),
		history: rentalHistory,
	}
}

// Offers returns the raw, uncached offer list for one GPU type (spec.md
// §4.8's "GET /rental/offers/:gpuType" route).
func (s *Service) Offers(ctx context.Context, gpuType string) ([]common.RentalOffer, bool, error) {
	return s.adapter.FetchOffers(ctx, gpuType)
}

// AllPrices serves the cached snapshot, computing and caching a fresh one
// on miss. The bool return is true when served from cache.
func (s *Service) AllPrices(ctx context.Context, gpuTypes []string) (Snapshot, bool, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		return cached.(Snapshot), true, nil
	}

	statsByType := make(map[string]common.RentalPriceStats, len(gpuTypes))
	anyFallback := false
	now := common.NowMillis()

	for _, gpuType := range gpuTypes {
		offers, fellBack, err := s.adapter.FetchOffers(ctx, gpuType)
		if err != nil {
			continue
		}
		if fellBack {
			anyFallback = true
		}
		statsByType[gpuType] = ComputeStats(gpuType, offers, now)
	}

	source := SourceOracleService
	if anyFallback {
		source = SourceSimulated
	} else if s.history != nil && s.history.Configured() {
		source = SourceSupabase
	}
	snapshot := Snapshot{Stats: statsByType, Source: source, Timestamp: now}
	s.cache.Set(statsCacheKey, snapshot, gocache.DefaultExpiration)
	return snapshot, false, nil
}

// ComputeStats fuses raw offers into RentalPriceStats (spec.md §3's
// rental-price-stats fields).
func ComputeStats(gpuType string, offers []common.RentalOffer, timestamp int64) common.RentalPriceStats {
	if len(offers) == 0 {
		return common.RentalPriceStats{GPUType: gpuType, Timestamp: timestamp}
	}

	prices := make([]float64, len(offers))
	for i, o := range offers {
		prices[i] = o.PricePerGPUHour
	}
	sort.Float64s(prices)

	stats := common.RentalPriceStats{
		GPUType:     gpuType,
		MinPrice:    prices[0],
		MaxPrice:    prices[len(prices)-1],
		MedianPrice: medianOf(prices),
		OfferCount:  len(offers),
		Timestamp:   timestamp,
	}

	var sum float64
	var interruptibleSum, interruptibleCount float64
	var onDemandSum, onDemandCount float64
	for _, o := range offers {
		sum += o.PricePerGPUHour
		if o.Interruptible {
			interruptibleSum += o.PricePerGPUHour
			interruptibleCount++
		} else {
			onDemandSum += o.PricePerGPUHour
			onDemandCount++
		}
	}
	stats.AvgPrice = sum / float64(len(offers))
	if interruptibleCount > 0 {
		stats.InterruptibleAvg = interruptibleSum / interruptibleCount
	}
	if onDemandCount > 0 {
		stats.OnDemandAvg = onDemandSum / onDemandCount
	}
	return stats
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
