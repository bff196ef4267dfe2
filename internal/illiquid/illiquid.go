// Package illiquid implements the optional fusion policies used for
// assets too thinly traded for a straight median-of-observations to be
// trustworthy: a multi-component blend, an EMA-smoothed mark, and a
// hybrid of the two.
package illiquid

import (
	"math"
	"time"

	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/outlier"
)

// WeightedObservation pairs an observation's price with its source weight.
type WeightedObservation struct {
	Price     float64
	Weight    float64
	Timestamp int64 // ms since epoch
}

// BidAsk is an optional best-bid/best-ask pair.
type BidAsk struct {
	Bid float64
	Ask float64
}

// MultiComponentResult is the output of the multi-component policy.
type MultiComponentResult struct {
	Price      float64
	Confidence float64
	Components int
}

const defaultWinsorizeFraction = 0.05
const salesFloorHalfLife = 30 * time.Minute

// MultiComponent computes a canonical price from trade-weighted price,
// time-decayed sales floor, and bid-ask mid, per spec.md §4.10.
func MultiComponent(observations []WeightedObservation, bidAsk *BidAsk, now int64, winsorizeFraction float64) MultiComponentResult {
	if winsorizeFraction <= 0 {
		winsorizeFraction = defaultWinsorizeFraction
	}

	var components []float64

	if tradeWeighted, ok := tradeWeightedPrice(observations); ok {
		components = append(components, tradeWeighted)
	}
	if salesFloor, ok := salesFloorPrice(observations, now); ok {
		components = append(components, salesFloor)
	}
	if bidAsk != nil && bidAsk.Bid > 0 && bidAsk.Ask > 0 && bidAsk.Bid <= bidAsk.Ask {
		components = append(components, (bidAsk.Bid+bidAsk.Ask)/2)
	}

	if len(components) == 0 {
		return MultiComponentResult{}
	}

	med := outlier.Median(components)
	winsorized := make([]float64, len(components))
	for i, c := range components {
		if med == 0 {
			winsorized[i] = c
			continue
		}
		deviation := math.Abs(c-med) / med
		if deviation > winsorizeFraction {
			if c > med {
				winsorized[i] = med * (1 + winsorizeFraction)
			} else {
				winsorized[i] = med * (1 - winsorizeFraction)
			}
			continue
		}
		winsorized[i] = c
	}
	finalPrice := outlier.Median(winsorized)

	spread := 0.0
	if bidAsk != nil && bidAsk.Bid > 0 && bidAsk.Ask > 0 && finalPrice > 0 {
		spread = (bidAsk.Ask - bidAsk.Bid) / finalPrice
	}
	confidence := 0.5*math.Min(float64(len(components))/3.0, 1.0) + 0.5*math.Max(0, 1-spread*2)

	return MultiComponentResult{Price: finalPrice, Confidence: confidence, Components: len(components)}
}

func tradeWeightedPrice(observations []WeightedObservation) (float64, bool) {
	var numerator, denominator float64
	for _, o := range observations {
		numerator += o.Weight * o.Price
		denominator += o.Weight
	}
	if denominator <= 0 {
		return 0, false
	}
	return numerator / denominator, true
}

// salesFloorPrice is the exponentially time-decayed weighted average of
// MAD-filtered observations, with a 30-minute half-life.
func salesFloorPrice(observations []WeightedObservation, now int64) (float64, bool) {
	if len(observations) == 0 {
		return 0, false
	}
	asObservations := make([]common.Observation, len(observations))
	for i, o := range observations {
		asObservations[i] = common.Observation{Price: o.Price, Timestamp: o.Timestamp}
	}
	filtered := outlier.MADFilter(asObservations, outlier.DefaultMADOptions())
	if len(filtered) == 0 {
		return 0, false
	}

	filteredSet := make(map[float64]bool, len(filtered))
	for _, o := range filtered {
		filteredSet[o.Price] = true
	}

	halfLifeMs := float64(salesFloorHalfLife.Milliseconds())
	lambda := math.Ln2 / halfLifeMs

	var numerator, denominator float64
	for _, o := range observations {
		if !filteredSet[o.Price] {
			continue
		}
		age := float64(now - o.Timestamp)
		if age < 0 {
			age = 0
		}
		decay := math.Exp(-lambda * age)
		weight := o.Weight * decay
		numerator += weight * o.Price
		denominator += weight
	}
	if denominator <= 0 {
		return 0, false
	}
	return numerator / denominator, true
}

// EMAState is the persistent mark-price EMA held across calls for one asset.
type EMAState struct {
	hasValue    bool
	mark        float64
	lastUpdated int64
}

// EMAResult is the output of the EMA-smoothed policy.
type EMAResult struct {
	Price float64
	Mark  float64
}

const defaultEMAWindow = 2 * time.Hour
const defaultExternalWeight = 1.0 / 3.0
const defaultMarkWeight = 2.0 / 3.0

// Update advances the EMA state with a new mark-price sample at timestamp
// now, then blends in an optional external price. window defaults to 2h.
func (s *EMAState) Update(markSample float64, now int64, external *float64, window time.Duration) EMAResult {
	if window <= 0 {
		window = defaultEMAWindow
	}

	if !s.hasValue {
		s.mark = markSample
		s.hasValue = true
		s.lastUpdated = now
	} else {
		deltaT := float64(now - s.lastUpdated)
		if deltaT < 0 {
			deltaT = 0
		}
		tau := float64(window.Milliseconds()) / 3.0
		alpha := 1 - math.Exp(-deltaT/tau)
		s.mark = alpha*markSample + (1-alpha)*s.mark
		s.lastUpdated = now
	}

	if external == nil {
		return EMAResult{Price: s.mark, Mark: s.mark}
	}
	return EMAResult{Price: defaultExternalWeight**external + defaultMarkWeight*s.mark, Mark: s.mark}
}

// HybridResult is the output of the hybrid policy.
type HybridResult struct {
	Price      float64
	Confidence float64
}

// Hybrid feeds the multi-component output as the EMA policy's mark sample
// and blends the two confidences (spec.md §4.10).
func Hybrid(state *EMAState, observations []WeightedObservation, bidAsk *BidAsk, now int64, window time.Duration) HybridResult {
	multi := MultiComponent(observations, bidAsk, now, 0)
	if multi.Price <= 0 {
		return HybridResult{}
	}
	ema := state.Update(multi.Price, now, nil, window)

	emaConfidence := 1.0
	if !state.hasValue {
		emaConfidence = 0
	}
	confidence := 0.6*multi.Confidence + 0.4*emaConfidence
	return HybridResult{Price: ema.Price, Confidence: confidence}
}

