// Package adapters implements the SourceAdapter contract (spec.md §4.1)
// and every concrete adapter the oracle fans out to: authenticated API
// adapters, HTML-scraping adapters, a deterministic mock, and the rental
// marketplace adapter.
package adapters

import (
	"context"

	"github.com/hwpriced/oracle/internal/common"
)

// SourceAdapter is the uniform contract every price source implements.
type SourceAdapter interface {
	// Name is the stable lowercase identifier used in provenance and
	// collapse keys.
	Name() string
	// IsAvailable reports whether this adapter has the configuration it
	// needs to be called (credentials, reachable dependencies, etc.).
	IsAvailable() bool
	// FetchPrices returns 0..N observations for this round. It must not
	// error for "no data"; it returns an *common.AdapterError for
	// authentication, fetch, block/CAPTCHA, or protocol failures.
	FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error)
}

// DisplayName maps an adapter's stable name to its user-visible form
// (spec.md §4.5 step 6). Unknown names pass through unchanged.
func DisplayName(name string) string {
	switch name {
	case "mock":
		return "Simulated"
	case "newegg-scraper":
		return "Newegg"
	case "bestbuy-scraper":
		return "Best Buy"
	case "amazon-scraper":
		return "Amazon"
	case "bhphoto-scraper":
		return "B&H Photo"
	case "ebay":
		return "eBay"
	case "amazon":
		return "Amazon API"
	case "bestbuy":
		return "Best Buy API"
	default:
		return name
	}
}
