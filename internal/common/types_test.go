package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdapterErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewAdapterError("ebay", ErrFetchFailed, "search request failed", cause)
	assert.Equal(t, "ebay: FETCH_FAILED: search request failed: boom", err.Error())
}

func TestAdapterErrorMessageWithoutCause(t *testing.T) {
	err := NewAdapterError("mock", ErrInvalidAsset, "unknown asset FOO", nil)
	assert.Equal(t, "mock: INVALID_ASSET: unknown asset FOO", err.Error())
}

func TestAdapterErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("network down")
	err := NewAdapterError("amazon", ErrFetchFailed, "request failed", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestNewSourceDetailPreservesSourceKeySeparatelyFromDisplayName(t *testing.T) {
	d := NewSourceDetail("newegg-scraper", "Newegg", 1599.99, 5, false)
	assert.Equal(t, "newegg-scraper", d.SourceKey())
	assert.Equal(t, "Newegg", d.Name)
	assert.Equal(t, 1599.99, d.Price)
	assert.Equal(t, 5, d.Count)
	assert.False(t, d.IsSimulated)
}

func TestNowMillisIsPositive(t *testing.T) {
	assert.Greater(t, NowMillis(), int64(0))
}
