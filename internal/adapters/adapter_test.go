package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameMapsKnownAdapters(t *testing.T) {
	cases := map[string]string{
		"mock":            "Simulated",
		"newegg-scraper":  "Newegg",
		"bestbuy-scraper": "Best Buy",
		"amazon-scraper":  "Amazon",
		"bhphoto-scraper": "B&H Photo",
		"ebay":            "eBay",
		"amazon":          "Amazon API",
		"bestbuy":         "Best Buy API",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayName(in))
	}
}

func TestDisplayNamePassesThroughUnknown(t *testing.T) {
	assert.Equal(t, "some-new-adapter", DisplayName("some-new-adapter"))
}
