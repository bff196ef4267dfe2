package illiquid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMultiComponentEmptyReturnsZero(t *testing.T) {
	result := MultiComponent(nil, nil, 0, 0)
	assert.Equal(t, 0.0, result.Price)
	assert.Equal(t, 0, result.Components)
}

func TestMultiComponentWithoutBidAskUsesTradeWeightedAndSalesFloor(t *testing.T) {
	obs := []WeightedObservation{
		{Price: 100, Weight: 1, Timestamp: 0},
		{Price: 200, Weight: 1, Timestamp: 0},
	}
	result := MultiComponent(obs, nil, 0, 0)
	// trade-weighted and sales floor both come to 150; no bid-ask mid.
	assert.Equal(t, 2, result.Components)
	assert.InDelta(t, 150.0, result.Price, 1e-9)
}

func TestMultiComponentBlendsBidAskMid(t *testing.T) {
	obs := []WeightedObservation{
		{Price: 100, Weight: 1, Timestamp: 0},
	}
	result := MultiComponent(obs, &BidAsk{Bid: 98, Ask: 102}, 0, 0)
	assert.Equal(t, 3, result.Components)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestMultiComponentIgnoresInvalidBidAsk(t *testing.T) {
	obs := []WeightedObservation{{Price: 100, Weight: 1, Timestamp: 0}}
	result := MultiComponent(obs, &BidAsk{Bid: 105, Ask: 100}, 0, 0)
	assert.Equal(t, 2, result.Components)
}

func TestMultiComponentResistsFarOutlierObservation(t *testing.T) {
	// the 10000 listing carries almost no weight in the trade-weighted
	// price and is dropped by the sales floor's MAD filter, so it cannot
	// drag the final median far from 100.
	obs := []WeightedObservation{
		{Price: 100, Weight: 10, Timestamp: 0},
		{Price: 100, Weight: 10, Timestamp: 0},
		{Price: 100, Weight: 10, Timestamp: 0},
		{Price: 10000, Weight: 0.01, Timestamp: 0},
	}
	result := MultiComponent(obs, nil, 0, 0)
	assert.Less(t, result.Price, 200.0)
}

func TestEMAStateFirstUpdateSeedsMark(t *testing.T) {
	state := &EMAState{}
	result := state.Update(100, 0, nil, 0)
	assert.Equal(t, 100.0, result.Mark)
	assert.Equal(t, 100.0, result.Price)
}

func TestEMAStateBlendsExternal(t *testing.T) {
	state := &EMAState{}
	state.Update(100, 0, nil, 0)
	external := 130.0
	result := state.Update(100, int64(time.Hour/time.Millisecond), &external, 0)
	// external weight 1/3, mark weight 2/3; the mark stays at 100 since the new sample equals it.
	assert.InDelta(t, defaultExternalWeight*external+defaultMarkWeight*result.Mark, result.Price, 1e-9)
}

func TestEMAStateConvergesTowardNewSample(t *testing.T) {
	state := &EMAState{}
	state.Update(100, 0, nil, time.Hour)
	first := state.mark
	result := state.Update(200, int64(10*time.Hour/time.Millisecond), nil, time.Hour)
	assert.Greater(t, result.Mark, first)
	assert.LessOrEqual(t, result.Mark, 200.0)
}

func TestHybridReturnsZeroWhenNoComponents(t *testing.T) {
	state := &EMAState{}
	result := Hybrid(state, nil, nil, 0, 0)
	assert.Equal(t, 0.0, result.Price)
}

func TestHybridCombinesMultiAndEMA(t *testing.T) {
	state := &EMAState{}
	obs := []WeightedObservation{
		{Price: 500, Weight: 1, Timestamp: 0},
		{Price: 520, Weight: 1, Timestamp: 0},
	}
	result := Hybrid(state, obs, nil, 0, time.Hour)
	assert.Greater(t, result.Price, 0.0)
	assert.Greater(t, result.Confidence, 0.0)
}
