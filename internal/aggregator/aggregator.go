// Package aggregator fans out to every enabled source adapter, filters
// outliers, fuses a median price, updates the per-asset TWAP, and holds
// the last-known price for every catalog asset.
package aggregator

import (
	"context"
	"log/slog"
	"math"
	"math/big"
	"sync"

	"github.com/hwpriced/oracle/internal/adapters"
	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/outlier"
	"github.com/hwpriced/oracle/internal/twap"
)

const defaultChangeThreshold = 0.005

// Aggregator composes the enabled adapter set with the outlier filter and
// TWAP calculator, holding the current fused price per asset.
type Aggregator struct {
	adapters        []adapters.SourceAdapter
	twapCalculator  *twap.Calculator
	changeThreshold float64

	mu         sync.RWMutex
	lastPrices map[string]common.AggregatedPrice

	logger *slog.Logger
}

// New builds an Aggregator over the given enabled adapters.
func New(enabledAdapters []adapters.SourceAdapter, twapCalculator *twap.Calculator, changeThreshold float64, logger *slog.Logger) *Aggregator {
	if changeThreshold <= 0 {
		changeThreshold = defaultChangeThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		adapters:        enabledAdapters,
		twapCalculator:  twapCalculator,
		changeThreshold: changeThreshold,
		lastPrices:      make(map[string]common.AggregatedPrice),
		logger:          logger,
	}
}

// UpdateResult is one asset's outcome from an updatePrice round.
type UpdateResult struct {
	AssetID string
	Price   common.AggregatedPrice
	Changed bool
}

// UpdatePrice runs one fan-out/filter/fuse round for a single asset
// (spec.md §4.5).
func (a *Aggregator) UpdatePrice(ctx context.Context, assetID string) (UpdateResult, error) {
	if !catalog.IsHardwareAsset(assetID) {
		return UpdateResult{}, common.NewAdapterError("aggregator", common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	observations := a.fanOut(ctx, assetID)
	a.logger.Debug("aggregator round fetched observations", "assetId", assetID, "count", len(observations))

	filtered := outlier.MADFilter(observations, outlier.DefaultMADOptions())

	medianPrice := 0.0
	if len(filtered) > 0 {
		medianPrice = outlier.MedianOfObservations(filtered)
	}

	now := common.NowMillis()
	twapValue := medianPrice
	if medianPrice > 0 {
		a.twapCalculator.AddObservation(assetID, medianPrice, now)
		if v, ok := a.twapCalculator.GetTWAP(assetID); ok {
			twapValue = v
		}
	}

	sources := collapseBySource(filtered)

	priceInt := priceToFixedPoint(medianPrice)

	record := common.AggregatedPrice{
		AssetID:     assetID,
		Price:       medianPrice,
		TWAP:        twapValue,
		PriceInt:    priceInt,
		SourceCount: len(sources),
		Timestamp:   now,
		Currency:    "USD",
		Sources:     sources,
	}

	installed, changed := a.installAndCompare(assetID, record)

	return UpdateResult{AssetID: assetID, Price: installed, Changed: changed}, nil
}

// fanOut issues every enabled adapter's FetchPrices concurrently and
// flattens the results; per-adapter failures are logged and treated as
// empty (spec.md §4.5 step 1).
func (a *Aggregator) fanOut(ctx context.Context, assetID string) []common.Observation {
	var wg sync.WaitGroup
	results := make([][]common.Observation, len(a.adapters))

	for i, adapter := range a.adapters {
		if !adapter.IsAvailable() {
			continue
		}
		wg.Add(1)
		go func(i int, adapter adapters.SourceAdapter) {
			defer wg.Done()
			obs, err := adapter.FetchPrices(ctx, assetID)
			if err != nil {
				a.logger.Warn("adapter fetch failed", "adapter", adapter.Name(), "assetId", assetID, "error", err)
				return
			}
			results[i] = obs
		}(i, adapter)
	}
	wg.Wait()

	var flat []common.Observation
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat
}

// collapseBySource groups filtered observations by adapter name, taking
// the per-source median price (spec.md §4.5 step 6).
func collapseBySource(observations []common.Observation) []common.SourceDetail {
	bySource := make(map[string][]common.Observation)
	var order []string
	for _, o := range observations {
		if _, ok := bySource[o.Source]; !ok {
			order = append(order, o.Source)
		}
		bySource[o.Source] = append(bySource[o.Source], o)
	}

	details := make([]common.SourceDetail, 0, len(order))
	for _, source := range order {
		obs := bySource[source]
		price := outlier.MedianOfObservations(obs)
		details = append(details, common.NewSourceDetail(
			source,
			adapters.DisplayName(source),
			price,
			len(obs),
			source == "mock",
		))
	}
	return details
}

// priceToFixedPoint rounds price * 1e8 to the nearest integer using
// arbitrary-precision arithmetic, since naive float64 multiplication can
// misround prices near a .5-cent boundary at this scale.
func priceToFixedPoint(price float64) int64 {
	if price <= 0 {
		return 0
	}
	scaled := new(big.Float).SetPrec(128).Mul(big.NewFloat(price), big.NewFloat(1e8))
	rounded, _ := scaled.Add(scaled, big.NewFloat(0.5)).Int64()
	return rounded
}

// installAndCompare atomically installs record as the asset's current
// value and reports whether it counts as a material change (spec.md §4.5
// step 9). It returns the record now held for the asset, which is the
// previous one when this round found no price.
func (a *Aggregator) installAndCompare(assetID string, record common.AggregatedPrice) (common.AggregatedPrice, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	previous, hadPrevious := a.lastPrices[assetID]

	changed := !hadPrevious
	if hadPrevious && previous.Price > 0 {
		delta := math.Abs(record.Price-previous.Price) / previous.Price
		changed = delta >= a.changeThreshold
	}

	record.UpdatedAt = common.NowMillis()
	if hadPrevious && record.UpdatedAt <= previous.UpdatedAt {
		record.UpdatedAt = previous.UpdatedAt + 1
	}

	// A round that found no fresh observations keeps the previous price in
	// place rather than overwriting it with a zero (spec.md §4.11). On a
	// genuine first round there is no previous price to fall back to, so
	// nothing is installed at all.
	if record.Price <= 0 {
		if !hadPrevious {
			return record, false
		}
		stale := previous
		stale.UpdatedAt = record.UpdatedAt
		a.lastPrices[assetID] = stale
		return stale, false
	}

	a.lastPrices[assetID] = record
	return record, changed
}

// UpdateAllPrices runs UpdatePrice for every catalog asset, catching and
// logging per-asset failures without aborting the round (spec.md §4.5).
func (a *Aggregator) UpdateAllPrices(ctx context.Context) []UpdateResult {
	assetIDs := catalog.HardwareAssetIDs()
	results := make([]UpdateResult, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		result, err := a.UpdatePrice(ctx, assetID)
		if err != nil {
			a.logger.Error("update round failed for asset", "assetId", assetID, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results
}

// GetPrice returns the current value for assetID, or false if none exists.
func (a *Aggregator) GetPrice(assetID string) (common.AggregatedPrice, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	price, ok := a.lastPrices[assetID]
	return price, ok
}

// GetAllPrices returns a snapshot copy of every currently-known price.
func (a *Aggregator) GetAllPrices() map[string]common.AggregatedPrice {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snapshot := make(map[string]common.AggregatedPrice, len(a.lastPrices))
	for k, v := range a.lastPrices {
		snapshot[k] = v
	}
	return snapshot
}
