package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// readLimited reads resp.Body up to 2MB, enough for any search-result page.
func readLimited(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 2<<20))
}

// scrapedListing is one raw listing extracted from a vendor search page,
// before relevance/price-floor filtering.
type scrapedListing struct {
	Title string
	Price float64
	URL   string
}

// jsonLDPriceRE pulls "price":"1599.99" or "price":1599.99 out of an
// embedded schema.org Offer block. Vendors differ wildly in page markup,
// but nearly all of them still emit structured data for SEO, so this is
// the only extraction the scrapers perform; no HTML selector fallback is
// applied when a page carries no such block.
var jsonLDPriceRE = regexp.MustCompile(`"price"\s*:\s*"?(\d+(?:\.\d+)?)"?`)
var jsonLDNameRE = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
var jsonLDURLRE = regexp.MustCompile(`"url"\s*:\s*"([^"]+)"`)

// blockMarkers are substrings seen in vendor anti-bot challenge pages.
var blockMarkers = []string{
	"captcha", "are you a human", "access denied", "request blocked",
	"unusual traffic", "to continue, please",
}

// extractJSONLDListings scans every <script type="application/ld+json">
// block in body for repeated Product/Offer triples. It is a regex-based
// structured-data reader rather than a full HTML/DOM parser, since no
// HTML parsing library is part of the adopted stack.
func extractJSONLDListings(body []byte) []scrapedListing {
	scripts := splitScriptBlocks(body)
	listings := make([]scrapedListing, 0, len(scripts))
	for _, block := range scripts {
		priceMatch := jsonLDPriceRE.FindSubmatch(block)
		if priceMatch == nil {
			continue
		}
		price, err := strconv.ParseFloat(string(priceMatch[1]), 64)
		if err != nil || price <= 0 {
			continue
		}
		listing := scrapedListing{Price: price}
		if nameMatch := jsonLDNameRE.FindSubmatch(block); nameMatch != nil {
			listing.Title = string(nameMatch[1])
		}
		if urlMatch := jsonLDURLRE.FindSubmatch(block); urlMatch != nil {
			listing.URL = string(urlMatch[1])
		}
		if listing.Title != "" {
			listings = append(listings, listing)
		}
	}
	return listings
}

var scriptOpenTag = []byte(`<script type="application/ld+json">`)
var scriptCloseTag = []byte(`</script>`)

func splitScriptBlocks(body []byte) [][]byte {
	var blocks [][]byte
	rest := body
	for {
		start := bytes.Index(rest, scriptOpenTag)
		if start < 0 {
			break
		}
		rest = rest[start+len(scriptOpenTag):]
		end := bytes.Index(rest, scriptCloseTag)
		if end < 0 {
			break
		}
		blocks = append(blocks, rest[:end])
		rest = rest[end+len(scriptCloseTag):]
	}
	return blocks
}

// isBlockedResponse reports whether status/body indicate the scrape was
// challenged rather than served a normal search page.
func isBlockedResponse(status int, body []byte) bool {
	if status == 403 || status == 429 {
		return true
	}
	lower := strings.ToLower(string(body))
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// fetchSearchPage gets a vendor search page body, preferring the
// third-party fetch proxy when configured, else the stealth client's
// retry-with-backoff path (spec.md §4.2).
func fetchSearchPage(ctx context.Context, vendor string, stealth *httpfetch.StealthClient, scraperAPI *httpfetch.ScraperAPIClient, searchURL, referer string, renderJs bool, country string) ([]byte, int, error) {
	if scraperAPI.Enabled() {
		body, err := scraperAPI.Fetch(ctx, searchURL, renderJs, country)
		if err != nil {
			return nil, 0, err
		}
		return body, 200, nil
	}

	resp, err := stealth.FetchWithRetry(ctx, searchURL, referer)
	if err != nil {
		return nil, 0, common.NewAdapterError(vendor, common.ErrFetchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	body, readErr := readLimited(resp)
	if readErr != nil {
		return nil, resp.StatusCode, common.NewAdapterError(vendor, common.ErrFetchFailed, "read response body", readErr)
	}
	return body, resp.StatusCode, nil
}
