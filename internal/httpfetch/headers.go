package httpfetch

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var (
	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randIntn(n int) int {
	randMu.Lock()
	defer randMu.Unlock()
	return randSrc.Intn(n)
}

func randRangeMs(minMs, maxMs int) time.Duration {
	randMu.Lock()
	span := maxMs - minMs
	v := minMs
	if span > 0 {
		v += randSrc.Intn(span)
	}
	randMu.Unlock()
	return time.Duration(v) * time.Millisecond
}

// browserFingerprint is a plausible header set for one browser/platform combo.
type browserFingerprint struct {
	userAgent      string
	secChUA        string
	secChUAMobile  string
	secChUAPlatform string
}

var fingerprints = []browserFingerprint{
	{
		userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		secChUA:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		secChUAMobile:   "?0",
		secChUAPlatform: `"Windows"`,
	},
	{
		userAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		secChUA:         "",
		secChUAMobile:   "",
		secChUAPlatform: `"macOS"`,
	},
	{
		userAgent:       "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		secChUA:         "",
		secChUAMobile:   "",
		secChUAPlatform: `"Linux"`,
	},
	{
		userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
		secChUA:         `"Microsoft Edge";v="124", "Chromium";v="124", "Not-A.Brand";v="99"`,
		secChUAMobile:   "?0",
		secChUAPlatform: `"Windows"`,
	},
}

// applyStealthHeaders sets a randomized, plausible browser header set on req,
// wiring Referer from the caller.
func applyStealthHeaders(req *http.Request, referer string) {
	fp := fingerprints[randIntn(len(fingerprints))]

	req.Header.Set("User-Agent", fp.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", acceptLanguages[randIntn(len(acceptLanguages))])
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", fetchSite(referer))
	req.Header.Set("Sec-Fetch-User", "?1")
	if fp.secChUA != "" {
		req.Header.Set("Sec-CH-UA", fp.secChUA)
		req.Header.Set("Sec-CH-UA-Mobile", fp.secChUAMobile)
		req.Header.Set("Sec-CH-UA-Platform", fp.secChUAPlatform)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.8,es;q=0.5",
}

func fetchSite(referer string) string {
	if referer == "" {
		return "none"
	}
	return "same-origin"
}

// sessionCookie synthesizes a per-vendor session cookie value, stable across
// a burst of calls (pass the same burstSeed) and randomized across bursts.
func sessionCookie(vendor string, burstSeed int64) string {
	return fmt.Sprintf("%s_sess=%x", vendor, burstSeed)
}

// NewBurstSeed returns a seed suitable for sessionCookie, stable for the
// caller's lifetime of one burst.
func NewBurstSeed() int64 {
	randMu.Lock()
	defer randMu.Unlock()
	return randSrc.Int63()
}
