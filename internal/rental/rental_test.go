package rental

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwpriced/oracle/internal/adapters"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/history"
)

func TestComputeStatsEmptyOffers(t *testing.T) {
	stats := ComputeStats("RENTAL_H100_80GB", nil, 1000)
	assert.Equal(t, 0.0, stats.MinPrice)
	assert.Equal(t, 0, stats.OfferCount)
}

func TestComputeStatsMinMaxMedianAvg(t *testing.T) {
	offers := []common.RentalOffer{
		{PricePerGPUHour: 2.0, Interruptible: false},
		{PricePerGPUHour: 3.0, Interruptible: true},
		{PricePerGPUHour: 4.0, Interruptible: false},
	}
	stats := ComputeStats("RENTAL_H100_80GB", offers, 1000)
	assert.Equal(t, 2.0, stats.MinPrice)
	assert.Equal(t, 4.0, stats.MaxPrice)
	assert.Equal(t, 3.0, stats.MedianPrice)
	assert.InDelta(t, 3.0, stats.AvgPrice, 1e-9)
	assert.Equal(t, 3.0, stats.InterruptibleAvg)
	assert.Equal(t, 3.0, stats.OnDemandAvg)
	assert.Equal(t, 3, stats.OfferCount)
}

func TestComputeStatsAllInterruptibleLeavesOnDemandZero(t *testing.T) {
	offers := []common.RentalOffer{
		{PricePerGPUHour: 1.0, Interruptible: true},
		{PricePerGPUHour: 2.0, Interruptible: true},
	}
	stats := ComputeStats("RENTAL_A100_80GB", offers, 1000)
	assert.Equal(t, 0.0, stats.OnDemandAvg)
	assert.InDelta(t, 1.5, stats.InterruptibleAvg, 1e-9)
}

func TestServiceAllPricesCachesAcrossCalls(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"bundles": []map[string]interface{}{
				{"gpu_count": 1, "price_per_hour": 2.5, "reliability": 0.9, "provider_type": "verified"},
			},
		})
	}))
	defer server.Close()

	svc := NewService(adapters.NewRentalAdapter(server.URL), nil)

	snapshot1, cached1, err := svc.AllPrices(context.Background(), []string{"RENTAL_H100_80GB"})
	require.NoError(t, err)
	assert.False(t, cached1)
	assert.Equal(t, SourceOracleService, snapshot1.Source)

	requestsAfterFirst := requestCount

	snapshot2, cached2, err := svc.AllPrices(context.Background(), []string{"RENTAL_H100_80GB"})
	require.NoError(t, err)
	assert.True(t, cached2)
	assert.Equal(t, snapshot1.Timestamp, snapshot2.Timestamp)
	assert.Equal(t, requestsAfterFirst, requestCount, "cached call must not hit the marketplace again")
}

func TestServiceAllPricesMarksSupabaseWhenHistoryIsConfiguredAndLive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"bundles": []map[string]interface{}{
				{"gpu_count": 1, "price_per_hour": 2.5, "reliability": 0.9, "provider_type": "verified"},
			},
		})
	}))
	defer server.Close()

	svc := NewService(adapters.NewRentalAdapter(server.URL), history.NewMemoryStore())
	snapshot, _, err := svc.AllPrices(context.Background(), []string{"RENTAL_H100_80GB"})
	require.NoError(t, err)
	assert.Equal(t, SourceSupabase, snapshot.Source)
}

func TestServiceAllPricesMarksSimulatedOnFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(adapters.NewRentalAdapter(server.URL), nil)
	snapshot, _, err := svc.AllPrices(context.Background(), []string{"RENTAL_RTX4090"})
	require.NoError(t, err)
	assert.Equal(t, SourceSimulated, snapshot.Source)
}

func TestServiceOffersPassesThroughAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"bundles": []map[string]interface{}{
				{"gpu_count": 4, "price_per_hour": 8.0, "reliability": 0.95, "provider_type": "enterprise"},
			},
		})
	}))
	defer server.Close()

	svc := NewService(adapters.NewRentalAdapter(server.URL), nil)
	offers, fellBack, err := svc.Offers(context.Background(), "RENTAL_A6000")
	require.NoError(t, err)
	assert.False(t, fellBack)
	require.Len(t, offers, 1)
	assert.Equal(t, 2.0, offers[0].PricePerGPUHour)
}
