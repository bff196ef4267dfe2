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

func TestNeweggAdapterNameAndAvailability(t *testing.T) {
	a := NewNeweggAdapter(nil, httpfetch.NewScraperAPIClient("", ""))
	assert.Equal(t, "newegg-scraper", a.Name())
	assert.False(t, a.IsAvailable())

	stealth, err := httpfetch.NewStealthClient(httpfetch.Options{})
	require.NoError(t, err)
	a2 := NewNeweggAdapter(stealth, httpfetch.NewScraperAPIClient("", ""))
	assert.True(t, a2.IsAvailable())
}

func TestNeweggAdapterFetchPricesRejectsUnknownAsset(t *testing.T) {
	stealth, err := httpfetch.NewStealthClient(httpfetch.Options{})
	require.NoError(t, err)
	a := NewNeweggAdapter(stealth, httpfetch.NewScraperAPIClient("", ""))
	_, err = a.FetchPrices(context.Background(), "NOT_A_REAL_ASSET")
	assert.Error(t, err)
}

func TestNeweggAdapterFetchPricesParsesAndFiltersListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
<script type="application/ld+json">{"name":"NVIDIA GeForce RTX 4090 24GB","price":"1599.99"}</script>
<script type="application/ld+json">{"name":"RTX 4090 Riser Cable","price":"19.99"}</script>
`))
	}))
	defer srv.Close()

	scraperAPI := httpfetch.NewScraperAPIClient("key", srv.URL+"/")
	a := NewNeweggAdapter(nil, scraperAPI)

	obs, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 1599.99, obs[0].Price)
	assert.Equal(t, "newegg-scraper", obs[0].Source)
	assert.Equal(t, "Newegg", obs[0].Metadata.Seller)
}

func TestNeweggAdapterFetchPricesReturnsErrorWhenProxyRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("access denied"))
	}))
	defer srv.Close()

	scraperAPI := httpfetch.NewScraperAPIClient("key", srv.URL+"/")
	a := NewNeweggAdapter(nil, scraperAPI)

	_, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	assert.Error(t, err)
}

func TestNeweggAdapterFetchPricesDetectsBlockMarkerInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Please complete the CAPTCHA to continue"))
	}))
	defer srv.Close()

	scraperAPI := httpfetch.NewScraperAPIClient("key", srv.URL+"/")
	a := NewNeweggAdapter(nil, scraperAPI)

	_, err := a.FetchPrices(context.Background(), "GPU_RTX4090")
	assert.Error(t, err)
}
