package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestBuyAdapterNameAndAvailability(t *testing.T) {
	a := NewBestBuyAdapter("")
	assert.Equal(t, "bestbuy", a.Name())
	assert.False(t, a.IsAvailable())

	a2 := NewBestBuyAdapter("key-123")
	assert.True(t, a2.IsAvailable())
}

func TestBestBuyAdapterFetchPricesFailsWhenUnconfigured(t *testing.T) {
	a := NewBestBuyAdapter("")
	_, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	assert.Error(t, err)
}

func TestBestBuyAdapterFetchPricesRejectsUnknownAssetBeforeNetworkCall(t *testing.T) {
	a := NewBestBuyAdapter("key-123")
	_, err := a.FetchPrices(context.Background(), "NOT_A_REAL_ASSET")
	assert.Error(t, err)
}
