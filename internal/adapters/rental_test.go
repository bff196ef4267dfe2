package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalAdapterFetchOffersUnknownType(t *testing.T) {
	a := NewRentalAdapter("")
	_, _, err := a.FetchOffers(context.Background(), "NOT_A_REAL_TYPE")
	assert.Error(t, err)
}

func TestRentalAdapterFetchOffersLiveNormalizesBundles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"bundles": []map[string]interface{}{
				{"gpu_count": 2, "price_per_hour": 4.0, "reliability": 0.95, "provider_type": "verified"},
				{"gpu_count": 1, "price_per_hour": 0, "reliability": 0.9, "provider_type": "community"}, // dropped: zero price
			},
		})
	}))
	defer server.Close()

	a := NewRentalAdapter(server.URL)
	offers, fellBack, err := a.FetchOffers(context.Background(), "RENTAL_H100_80GB")
	require.NoError(t, err)
	assert.False(t, fellBack)
	require.Len(t, offers, 1)
	assert.Equal(t, 2.0, offers[0].PricePerGPUHour)
	assert.False(t, offers[0].Interruptible)
}

func TestRentalAdapterFetchOffersFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewRentalAdapter(server.URL)
	offers, fellBack, err := a.FetchOffers(context.Background(), "RENTAL_A100_80GB")
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.NotEmpty(t, offers)
	for _, o := range offers {
		assert.Greater(t, o.PricePerGPUHour, 0.0)
	}
}

func TestRentalAdapterFetchOffersFallsBackOnEmptyBundles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"bundles": []interface{}{}})
	}))
	defer server.Close()

	a := NewRentalAdapter(server.URL)
	offers, fellBack, err := a.FetchOffers(context.Background(), "RENTAL_RTX4090")
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.NotEmpty(t, offers)
}

func TestRentalAdapterFabricateReliabilityInRange(t *testing.T) {
	a := NewRentalAdapter("http://127.0.0.1:0/unreachable")
	offers, fellBack, err := a.FetchOffers(context.Background(), "RENTAL_A6000")
	require.NoError(t, err)
	assert.True(t, fellBack)
	for _, o := range offers {
		assert.GreaterOrEqual(t, o.Reliability, 0.85)
		assert.LessOrEqual(t, o.Reliability, 0.99)
		assert.Equal(t, "RENTAL_A6000", o.GPUType)
	}
}
