package adapters

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// BestBuyScraperAdapter scrapes Best Buy's public search page. It is
// distinct from BestBuyAdapter (bestbuy.go), which calls the authenticated
// Products API; this one is used when SCRAPE_MODE is enabled, whether or
// not an API key is configured.
type BestBuyScraperAdapter struct {
	stealth    *httpfetch.StealthClient
	scraperAPI *httpfetch.ScraperAPIClient
}

func NewBestBuyScraperAdapter(stealth *httpfetch.StealthClient, scraperAPI *httpfetch.ScraperAPIClient) *BestBuyScraperAdapter {
	return &BestBuyScraperAdapter{stealth: stealth, scraperAPI: scraperAPI}
}

func (a *BestBuyScraperAdapter) Name() string { return "bestbuy-scraper" }

func (a *BestBuyScraperAdapter) IsAvailable() bool {
	return a.stealth != nil || a.scraperAPI.Enabled()
}

func (a *BestBuyScraperAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "no stealth client or fetch proxy configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	if !a.scraperAPI.Enabled() {
		if _, err := a.stealth.Get(ctx, "https://www.bestbuy.com/", ""); err == nil {
			_ = httpfetch.Sleep(ctx, 800, 2200)
		}
	}

	q := url.Values{}
	q.Set("st", asset.SearchTerms[0])
	searchURL := "https://www.bestbuy.com/site/searchpage.jsp?" + q.Encode()

	body, status, err := fetchSearchPage(ctx, a.Name(), a.stealth, a.scraperAPI, searchURL, "https://www.bestbuy.com/", true, "")
	if err != nil {
		return nil, err
	}
	if isBlockedResponse(status, body) {
		return nil, common.NewAdapterError(a.Name(), common.ErrBlocked, fmt.Sprintf("blocked with status %d", status), nil)
	}

	listings := extractJSONLDListings(body)
	if len(listings) == 0 && status == 200 {
		return nil, common.NewAdapterError(a.Name(), common.ErrScrapeFailed, "no structured-data listings found on page", nil)
	}

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
				Seller:      "Best Buy",
				Condition:   common.ConditionNew,
				URL:         listing.URL,
			},
		})
	}
	return observations, nil
}

var _ SourceAdapter = (*BestBuyScraperAdapter)(nil)
