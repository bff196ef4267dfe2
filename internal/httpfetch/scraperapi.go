package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hwpriced/oracle/internal/common"
)

// ScraperAPIClient redirects scraper fetches through a third-party
// fetch-proxy service when SCRAPER_API_KEY is configured (spec.md §4.2).
type ScraperAPIClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewScraperAPIClient builds a client. endpoint defaults to the
// well-known scraperapi.com proxy endpoint shape if empty.
func NewScraperAPIClient(apiKey, endpoint string) *ScraperAPIClient {
	if endpoint == "" {
		endpoint = "https://api.scraperapi.com/"
	}
	return &ScraperAPIClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether a third-party fetch proxy is configured.
func (c *ScraperAPIClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Fetch performs the single proxied GET for targetURL, renderJs and
// country are passed through verbatim to the external service (spec.md
// §9: "no attempt is made to verify rendering").
func (c *ScraperAPIClient) Fetch(ctx context.Context, targetURL string, renderJs bool, country string) ([]byte, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("url", targetURL)
	if renderJs {
		q.Set("render", "true")
	}
	if country != "" {
		q.Set("country_code", country)
	}

	reqURL := c.endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, common.NewAdapterError("scraperapi", common.ErrFetchFailed, "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.NewAdapterError("scraperapi", common.ErrFetchFailed, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewAdapterError("scraperapi", common.ErrFetchFailed, "read body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAdapterError("scraperapi", common.ErrScraperAPIError,
			fmt.Sprintf("third-party fetch proxy returned %d", resp.StatusCode), nil)
	}

	return body, nil
}
