package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/httpfetch"
)

// AmazonAdapter talks to the Product Advertising API's SearchItems
// operation, signed with a long-lived access/secret key pair rather than
// an OAuth token exchange. It reuses the teacher's "typed request struct,
// typed response struct" shape.
type AmazonAdapter struct {
	accessKey   string
	secretKey   string
	partnerTag  string
	host        string
	region      string
	client      *http.Client
}

func NewAmazonAdapter(accessKey, secretKey, partnerTag string) *AmazonAdapter {
	return &AmazonAdapter{
		accessKey:  accessKey,
		secretKey:  secretKey,
		partnerTag: partnerTag,
		host:       "webservices.amazon.com",
		region:     "us-east-1",
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *AmazonAdapter) Name() string { return "amazon" }

func (a *AmazonAdapter) IsAvailable() bool {
	return a.accessKey != "" && a.secretKey != "" && a.partnerTag != ""
}

type amazonSearchRequest struct {
	Keywords    string   `json:"Keywords"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	SearchIndex string   `json:"SearchIndex"`
	Resources   []string `json:"Resources"`
}

type amazonSearchResponse struct {
	SearchResult struct {
		Items []struct {
			ASIN  string `json:"ASIN"`
			ItemInfo struct {
				Title struct {
					DisplayValue string `json:"DisplayValue"`
				} `json:"Title"`
			} `json:"ItemInfo"`
			Offers struct {
				Listings []struct {
					Price struct {
						Amount   float64 `json:"Amount"`
						Currency string  `json:"Currency"`
					} `json:"Price"`
					Condition struct {
						Value string `json:"Value"`
					} `json:"Condition"`
				} `json:"Listings"`
			} `json:"Offers"`
			DetailPageURL string `json:"DetailPageURL"`
		} `json:"Items"`
	} `json:"SearchResult"`
}

// sign produces the SigV4-style signature the PA-API expects. It follows
// the standard AWS4-HMAC-SHA256 envelope without pulling in an AWS SDK,
// since the operation set needed here is exactly one POST.
func (a *AmazonAdapter) sign(payload []byte, amzDate string) string {
	dateStamp := amzDate[:8]
	kDate := hmacSHA256([]byte("AWS4"+a.secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, a.region)
	kService := hmacSHA256(kRegion, "ProductAdvertisingAPI")
	kSigning := hmacSHA256(kService, "aws4_request")

	payloadHash := sha256.Sum256(payload)
	stringToSign := fmt.Sprintf("AWS4-HMAC-SHA256\n%s\n%s/%s/ProductAdvertisingAPI/aws4_request\n%s",
		amzDate, dateStamp, a.region, hex.EncodeToString(payloadHash[:]))

	sig := hmacSHA256(kSigning, stringToSign)
	return hex.EncodeToString(sig)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func (a *AmazonAdapter) FetchPrices(ctx context.Context, assetID string) ([]common.Observation, error) {
	if !a.IsAvailable() {
		return nil, common.NewAdapterError(a.Name(), common.ErrAuthMissing, "AMAZON_ACCESS_KEY/AMAZON_SECRET_KEY/AMAZON_PARTNER_TAG not configured", nil)
	}
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, common.NewAdapterError(a.Name(), common.ErrInvalidAsset, "unknown asset "+assetID, nil)
	}

	body := amazonSearchRequest{
		Keywords:    asset.SearchTerms[0],
		PartnerTag:  a.partnerTag,
		PartnerType: "Associates",
		SearchIndex: "Electronics",
		Resources:   []string{"ItemInfo.Title", "Offers.Listings.Price", "Offers.Listings.Condition"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "marshal search request", err)
	}

	amzDate := time.Now().UTC().Format("20060102T150405Z")
	endpoint := "https://" + a.host + "/paapi5/searchitems"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems")
	req.Header.Set("Authorization", fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s/%s/ProductAdvertisingAPI/aws4_request, SignedHeaders=content-type;host;x-amz-date;x-amz-target, Signature=%s",
		a.accessKey, amzDate[:8], a.region, a.sign(payload, amzDate)))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAdapterError(a.Name(), common.ErrHTTPError,
			fmt.Sprintf("search endpoint returned %d", resp.StatusCode), nil)
	}

	var parsed amazonSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, common.NewAdapterError(a.Name(), common.ErrFetchFailed, "decode search response", err)
	}

	now := common.NowMillis()
	observations := make([]common.Observation, 0, len(parsed.SearchResult.Items))
	for _, item := range parsed.SearchResult.Items {
		title := item.ItemInfo.Title.DisplayValue
		if !httpfetch.IsRelevantListing(title, asset.SearchTerms[0], asset.Family) {
			continue
		}
		for _, listing := range item.Offers.Listings {
			if listing.Price.Currency != "USD" {
				continue
			}
			if listing.Price.Amount <= 0 || !httpfetch.PassesPriceFloor(listing.Price.Amount) {
				continue
			}
			condition := common.ConditionNew
			if !strings.EqualFold(listing.Condition.Value, "new") {
				continue // only emit new listings unless configured otherwise
			}
			observations = append(observations, common.Observation{
				AssetID:   assetID,
				Price:     listing.Price.Amount,
				Source:    a.Name(),
				Timestamp: now,
				Metadata: &common.ObservationMetadata{
					ProductName: title,
					Seller:      "Amazon.com",
					Condition:   condition,
					URL:         item.DetailPageURL,
				},
			})
		}
	}
	return observations, nil
}

var _ SourceAdapter = (*AmazonAdapter)(nil)
