package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hwpriced/oracle/internal/httpfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestBuyScraperAdapterNameAndAvailability(t *testing.T) {
	a := NewBestBuyScraperAdapter(nil, httpfetch.NewScraperAPIClient("", ""))
	assert.Equal(t, "bestbuy-scraper", a.Name())
	assert.False(t, a.IsAvailable())
}

func TestBestBuyScraperAdapterFetchPricesRejectsUnknownAsset(t *testing.T) {
	stealth, err := httpfetch.NewStealthClient(httpfetch.Options{})
	require.NoError(t, err)
	a := NewBestBuyScraperAdapter(stealth, httpfetch.NewScraperAPIClient("", ""))
	_, err = a.FetchPrices(context.Background(), "NOT_A_REAL_ASSET")
	assert.Error(t, err)
}

func TestBestBuyScraperAdapterFetchPricesParsesListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script type="application/ld+json">{"name":"NVIDIA GeForce RTX 4090 24GB","price":"1649.99"}</script>`))
	}))
	defer srv.Close()

	scraperAPI := httpfetch.NewScraperAPIClient("key", srv.URL+"/")
	a := NewBestBuyScraperAdapter(nil, scraperAPI)

	obs, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 1649.99, obs[0].Price)
	assert.Equal(t, "Best Buy", obs[0].Metadata.Seller)
}

func TestBestBuyScraperAdapterFetchPricesErrorsOnEmptyListingsWithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>no results</html>"))
	}))
	defer srv.Close()

	scraperAPI := httpfetch.NewScraperAPIClient("key", srv.URL+"/")
	a := NewBestBuyScraperAdapter(nil, scraperAPI)

	_, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	assert.Error(t, err, "an empty result set with a 200 status should be treated as a failed scrape, not a zero-price round")
}
