package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// EbayAdapter is an authenticated-marketplace API adapter against eBay's
// Browse API, following the teacher's per-vendor fetch-method shape
// (build request, decode a typed JSON struct) generalized to an OAuth
// client-credentials token exchange.
type EbayAdapter struct {
	appID   string
	certID  string
	client  *http.Client
	tokens  *tokenCache
}

func NewEbayAdapter(appID, certID string) *EbayAdapter {
	return &EbayAdapter{
		appID:  appID,
		certID: certID,
		client: &http.Client{Timeout: 15 * time.Second},
		tokens: newTokenCache(2 * time.Minute),
	}
}

func (a *EbayAdapter) Name() string { return "ebay" }

func (a *EbayAdapter) IsAvailable() bool {
	return a.appID != "" && a.certID != ""
}

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (a *EbayAdapter) accessToken(ctx context.Context) (string, error) {
	if token, ok := a.tokens.valid(); ok {
		return token, nil
	}

	creds := base64.StdEncoding.EncodeToString([]byte(a.appID + ":" + a.certID))
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.ebay.com/identity/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", common.NewAdapterError(a.Name(), common.ErrFetchFailed, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", common.NewAdapterError(a.Name(), common.ErrFetchFailed, "token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewAdapterError(a.Name(), common.ErrAuthFailed,
			fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var tok ebayTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", common.NewAdapterError(a.Name(), common.ErrFetchFailed, "decode token response", err)
	}

	a.tokens.set(tok.AccessToken, time.Duration(tok.ExpiresIn)*time.Second)
	return tok.AccessToken, nil
}

type ebaySearchResponse struct {
	ItemSummaries []struct {
		Title     string `json:"title"`
		Price     struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
		Condition string `json:"condition"`
		Seller    struct {
			Username string `json:"username"`
		} `json:"seller"`
		ItemWebURL string `json:"itemWebUrl"`
	} `json:"itemSummaries"`
}

func (a *EbayAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "EBAY_APP_ID/EBAY_CERT_ID not configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", asset.SearchTerms[0])
	q.Set("filter", "buyingOptions:{FIXED_PRICE},conditionIds:{1000}") // new
	q.Set("limit", "25")
	reqURL := "https://api.ebay.com/buy/browse/v1/item_summary/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "build search request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAdapterError(a.Name(), common.ErrHTTPError,
			fmt.Sprintf("search endpoint returned %d", resp.StatusCode), nil)
	}

	var parsed ebaySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "decode search response", err)
	}

	now := common.NowMillis()
	observations := make([]common.Observation, 0, len(parsed.ItemSummaries))
	for _, item := range parsed.ItemSummaries {
		if item.Price.Currency != "USD" {
			continue
		}
		price, err := strconv.ParseFloat(item.Price.Value, 64)
		if err != nil || price <= 0 {
			continue
		}
		if !httpfetch.PassesPriceFloor(price) {
			continue
		}
		if !httpfetch.IsRelevantListing(item.Title, asset.SearchTerms[0], asset.Family) {
			continue
		}
		observations = append(observations, common.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    a.Name(),
			Timestamp: now,
			Metadata: &common.ObservationMetadata{
				ProductName: item.Title,
				Seller:      item.Seller.Username,
				Condition:   common.ConditionNew,
				URL:         item.ItemWebURL,
			},
		})
	}
	return observations, nil
}

var _ SourceAdapter = (*EbayAdapter)(nil)
