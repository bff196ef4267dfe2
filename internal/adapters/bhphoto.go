package adapters

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// BHPhotoAdapter scrapes B&H Photo's search results page.
type BHPhotoAdapter struct {
	stealth    *httpfetch.StealthClient
	scraperAPI *httpfetch.ScraperAPIClient
}

func NewBHPhotoAdapter(stealth *httpfetch.StealthClient, scraperAPI *httpfetch.ScraperAPIClient) *BHPhotoAdapter {
	return &BHPhotoAdapter{stealth: stealth, scraperAPI: scraperAPI}
}

func (a *BHPhotoAdapter) Name() string { return "bhphoto-scraper" }

func (a *BHPhotoAdapter) IsAvailable() bool {
	return a.stealth != nil || a.scraperAPI.Enabled()
}

func (a *BHPhotoAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "no stealth client or fetch proxy configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	if !a.scraperAPI.Enabled() {
		if _, err := a.stealth.Get(ctx, "https://www.bhphotovideo.com/", ""); err == nil {
			_ = httpfetch.Sleep(ctx, 800, 2000)
		}
	}

	q := url.Values{}
	q.Set("q", asset.SearchTerms[0])
	searchURL := "https://www.bhphotovideo.com/c/search?" + q.Encode()

	body, status, err := fetchSearchPage(ctx, a.Name(), a.stealth, a.scraperAPI, searchURL, "https://www.bhphotovideo.com/", false, "")
	if err != nil {
		return nil, err
	}
	if isBlockedResponse(status, body) {
		return nil, common.NewAdapterError(a.Name(), common.ErrBlocked, fmt.Sprintf("blocked with status %d", status), nil)
	}

	listings := extractJSONLDListings(body)
	now := common.NowMillis()
	observations := make([]common.Observation, 0, len(listings))
	for _, listing := range listings {
		if !httpfetch.PassesPriceFloor(listing.Price) {
			continue
		}
		if !httpfetch.IsRelevantListing(listing.Title, asset.SearchTerms[0], asset.Family) {
			continue
		}
		observations = append(observations, common.Observation{
			AssetID:   assetID,
			Price:     listing.Price,
			Source:    a.Name(),
			Timestamp: now,
			Metadata: &common.ObservationMetadata{
				ProductName: listing.Title,
				Seller:      "B&H Photo",
				Condition:   common.ConditionNew,
				URL:         listing.URL,
			},
		})
	}
	return observations, nil
}

var _ SourceAdapter = (*BHPhotoAdapter)(nil)
