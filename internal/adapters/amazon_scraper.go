package adapters

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// AmazonScraperAdapter scrapes Amazon's public search results. It is part
// of the adapter set selected when SCRAPE_MODE is enabled, whether or not
// Product Advertising API credentials are configured.
type AmazonScraperAdapter struct {
	stealth    *httpfetch.StealthClient
	scraperAPI *httpfetch.ScraperAPIClient
}

func NewAmazonScraperAdapter(stealth *httpfetch.StealthClient, scraperAPI *httpfetch.ScraperAPIClient) *AmazonScraperAdapter {
	return &AmazonScraperAdapter{stealth: stealth, scraperAPI: scraperAPI}
}

func (a *AmazonScraperAdapter) Name() string { return "amazon-scraper" }

func (a *AmazonScraperAdapter) IsAvailable() bool {
	return a.stealth != nil || a.scraperAPI.Enabled()
}

func (a *AmazonScraperAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "no stealth client or fetch proxy configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	if !a.scraperAPI.Enabled() {
		if _, err := a.stealth.Get(ctx, "https://www.amazon.com/", ""); err == nil {
			_ = httpfetch.Sleep(ctx, 1000, 2500)
		}
	}

	q := url.Values{}
	q.Set("k", asset.SearchTerms[0])
	searchURL := "https://www.amazon.com/s?" + q.Encode()

	body, status, err := fetchSearchPage(ctx, a.Name(), a.stealth, a.scraperAPI, searchURL, "https://www.amazon.com/", true, "US")
	if err != nil {
		return nil, err
	}
	if isBlockedResponse(status, body) {
		return nil, common.NewAdapterError(a.Name(), common.ErrCaptcha, fmt.Sprintf("blocked with status %d", status), nil)
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
				Seller:      "Amazon.com",
				Condition:   common.ConditionNew,
				URL:         listing.URL,
			},
		})
	}
	return observations, nil
}

var _ SourceAdapter = (*AmazonScraperAdapter)(nil)
