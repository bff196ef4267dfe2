package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
)

// RentalAdapter queries the rental marketplace's bundle-search endpoint
// once per GPU type and normalizes the response into common.RentalOffer
// records. When the endpoint is unavailable it fabricates a plausible
// offer set around the catalog's per-type defaults, so the stats pipeline
// downstream still has something to fuse (spec.md §4.1's rental-adapter
// paragraph).
type RentalAdapter struct {
	baseURL string
	client  *http.Client
	rng     *rand.Rand
}

func NewRentalAdapter(baseURL string) *RentalAdapter {
	if baseURL == "" {
		baseURL = "https://api.example-gpu-marketplace.com/v1/bundles"
	}
	return &RentalAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano() ^ 0x5ec)),
	}
}

type bundleSearchResponse struct {
	Bundles []struct {
		GPUCount     int     `json:"gpu_count"`
		PricePerHour float64 `json:"price_per_hour"`
		Reliability  float64 `json:"reliability"`
		ProviderType string  `json:"provider_type"`
		MinBid       *float64 `json:"min_bid"`
	} `json:"bundles"`
}

// FetchOffers returns normalized offers for gpuType, plus whether the
// result is a fabricated fallback rather than a live marketplace read.
func (a *RentalAdapter) FetchOffers(ctx context.Context, gpuType string) (offers []common.RentalOffer, fellBack bool, err error) {
	rentalSpec, ok := catalog.GetRentalType(gpuType)
	if !ok {
		return nil, false, common.NewAdapterError("rental", common.ErrInvalidAsset, "unknown rental type "+gpuType, nil)
	}

	live, liveErr := a.fetchLive(ctx, rentalSpec)
	if liveErr == nil && len(live) > 0 {
		return live, false, nil
	}
	return a.fabricate(rentalSpec), true, nil
}

func (a *RentalAdapter) fetchLive(ctx context.Context, rentalSpec catalog.RentalType) ([]common.RentalOffer, error) {
	q := url.Values{}
	q.Set("query", rentalSpec.DisplayQuery)
	reqURL := a.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rental: build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rental: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rental: endpoint returned %d", resp.StatusCode)
	}

	var parsed bundleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("rental: decode response: %w", err)
	}

	offers := make([]common.RentalOffer, 0, len(parsed.Bundles))
	for _, b := range parsed.Bundles {
		if b.GPUCount <= 0 || b.PricePerHour <= 0 {
			continue
		}
		offers = append(offers, common.RentalOffer{
			GPUType:         rentalSpec.ID,
			GPUCount:        b.GPUCount,
			PricePerHour:    b.PricePerHour,
			PricePerGPUHour: b.PricePerHour / float64(b.GPUCount),
			Reliability:     b.Reliability,
			ProviderClass:   b.ProviderType,
			Interruptible:   b.MinBid != nil,
		})
	}
	return offers, nil
}

// fabricate synthesizes a plausible offer set around the catalog default
// price, spreading counts and reliability the way a small live listing
// page would.
func (a *RentalAdapter) fabricate(rentalSpec catalog.RentalType) []common.RentalOffer {
	gpuCounts := []int{1, 1, 2, 4, 8}
	providerClasses := []string{"community", "community", "verified", "enterprise"}

	n := 4 + a.rng.Intn(4) // 4..7
	offers := make([]common.RentalOffer, 0, n)
	for i := 0; i < n; i++ {
		count := gpuCounts[a.rng.Intn(len(gpuCounts))]
		jitter := (a.rng.Float64()*2 - 1) * 0.15 * rentalSpec.BasePricePerHour
		perHour := (rentalSpec.BasePricePerHour + jitter) * float64(count)
		if perHour <= 0 {
			perHour = rentalSpec.BasePricePerHour * float64(count)
		}
		interruptible := a.rng.Float64() < 0.4
		offers = append(offers, common.RentalOffer{
			GPUType:         rentalSpec.ID,
			GPUCount:        count,
			PricePerHour:    perHour,
			PricePerGPUHour: perHour / float64(count),
			Reliability:     0.85 + a.rng.Float64()*0.14,
			ProviderClass:   providerClasses[a.rng.Intn(len(providerClasses))],
			Interruptible:   interruptible,
		})
	}
	return offers
}
