package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// BestBuyAdapter queries the Best Buy Products API with a static API key
// (no token exchange, unlike ebay.go's OAuth flow).
type BestBuyAdapter struct {
	apiKey string
	client *http.Client
}

func NewBestBuyAdapter(apiKey string) *BestBuyAdapter {
	return &BestBuyAdapter{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *BestBuyAdapter) Name() string { return "bestbuy" }

func (a *BestBuyAdapter) IsAvailable() bool { return a.apiKey != "" }

type bestBuyProductsResponse struct {
	Products []struct {
		Name      string  `json:"name"`
		SalePrice float64 `json:"salePrice"`
		Condition string  `json:"condition"`
		URL       string  `json:"url"`
		Currency  string  `json:"currency"`
		Active    bool    `json:"active"`
	} `json:"products"`
}

func (a *BestBuyAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "BESTBUY_API_KEY not configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	q := url.Values{}
	q.Set("apiKey", a.apiKey)
	q.Set("format", "json")
	q.Set("show", "name,salePrice,condition,url,currency,active")
	q.Set("pageSize", "25")
	search := fmt.Sprintf("(search=%s)", url.QueryEscape(asset.SearchTerms[0]))
	reqURL := "https://api.bestbuy.com/v1/products" + search + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "build search request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthFailed,
			fmt.Sprintf("search endpoint returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAdapterError(a.Name(), common.ErrHTTPError,
			fmt.Sprintf("search endpoint returned %d", resp.StatusCode), nil)
	}

	var parsed bestBuyProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "decode search response", err)
	}

	now := common.NowMillis()
	observations := make([]common.Observation, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if !p.Active {
			continue
		}
		if p.Currency != "" && p.Currency != "USD" {
			continue
		}
		if p.SalePrice <= 0 || !httpfetch.PassesPriceFloor(p.SalePrice) {
			continue
		}
		if !httpfetch.IsRelevantListing(p.Name, asset.SearchTerms[0], asset.Family) {
			continue
		}
		if p.Condition != "" && p.Condition != "New" {
			continue // only emit new listings unless configured otherwise
		}
		observations = append(observations, common.Observation{
			AssetID:   assetID,
			Price:     p.SalePrice,
			Source:    a.Name(),
			Timestamp: now,
			Metadata: &common.ObservationMetadata{
				ProductName: p.Name,
				Seller:      "Best Buy",
				Condition:   common.ConditionNew,
				URL:         p.URL,
			},
		})
	}
	return observations, nil
}

var _ SourceAdapter = (*BestBuyAdapter)(nil)
