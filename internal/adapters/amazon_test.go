package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmazonAdapterNameAndAvailability(t *testing.T) {
	a := NewAmazonAdapter("", "", "")
	assert.Equal(t, "amazon", a.Name())
	assert.False(t, a.IsAvailable())

	a2 := NewAmazonAdapter("access", "secret", "tag-20")
	assert.True(t, a2.IsAvailable())
}

func TestAmazonAdapterFetchPricesFailsWhenUnconfigured(t *testing.T) {
	a := NewAmazonAdapter("", "", "")
	_, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	assert.Error(t, err)
}

func TestAmazonAdapterFetchPricesRejectsUnknownAssetBeforeNetworkCall(t *testing.T) {
	a := NewAmazonAdapter("access", "secret", "tag-20")
	_, err := a.FetchPrices(context.Background(), "NOT_A_REAL_ASSET")
	assert.Error(t, err)
}

func TestAmazonAdapterSignIsDeterministic(t *testing.T) {
	a := NewAmazonAdapter("access", "secret", "tag-20")
	payload := []byte(`{"Keywords":"RTX 4090"}`)
	sig1 := a.sign(payload, "20260101T000000Z")
	sig2 := a.sign(payload, "20260101T000000Z")
	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 64) // hex-encoded sha256
}

func TestAmazonAdapterSignVariesByPayload(t *testing.T) {
	a := NewAmazonAdapter("access", "secret", "tag-20")
	sig1 := a.sign([]byte("payload-a"), "20260101T000000Z")
	sig2 := a.sign([]byte("payload-b"), "20260101T000000Z")
	assert.NotEqual(t, sig1, sig2)
}
