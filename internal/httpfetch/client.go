// Package httpfetch is the HTTP fetch substrate shared by every scraping
// adapter: header/cookie randomization, optional proxy rotation, retry
// with backoff, and an optional third-party scraping-proxy passthrough.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 20 * time.Second

// Options configures a StealthClient, matching the enumerated options in
// spec.md §4.2.
type Options struct {
	UseProxy   bool
	ProxyURL   string
	Timeout    time.Duration
	Pool       *ProxyPool
	MaxRetries int // default 3
}

// StealthClient issues GETs with randomized browser-like headers, optional
// proxying, and retry-with-backoff.
type StealthClient struct {
	httpClient *http.Client
	opts       Options
	burstSeed  int64
}

// NewStealthClient builds a client. If opts.ProxyURL is set it pins that
// proxy; else if opts.UseProxy and opts.Pool is non-empty, one proxy is
// picked once at construction time (spec.md §4.2: "stealth client picks
// one per construction").
func NewStealthClient(opts Options) (*StealthClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	proxyURL := opts.ProxyURL
	if proxyURL == "" && opts.UseProxy && opts.Pool != nil && !opts.Pool.Empty() {
		if entry, ok := opts.Pool.NextProxy(); ok {
			proxyURL = entry.URL
		}
	}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpfetch: invalid proxy url %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &StealthClient{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		opts:       opts,
		burstSeed:  NewBurstSeed(),
	}, nil
}

// NewRotatingClient builds a client that selects a new proxy per request
// from the pool, unlike NewStealthClient which pins one proxy for the
// life of the client (spec.md §4.2's "rotating client variant").
func NewRotatingClient(pool *ProxyPool, timeout time.Duration) *StealthClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		entry, ok := pool.NextProxy()
		if !ok {
			return nil, nil
		}
		return url.Parse(entry.URL)
	}

	return &StealthClient{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		opts:       Options{UseProxy: true, Pool: pool, Timeout: timeout, MaxRetries: 3},
		burstSeed:  NewBurstSeed(),
	}
}

// Get issues a stealth GET against urlStr, with referer wired into the
// request headers.
func (c *StealthClient) Get(ctx context.Context, urlStr, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	applyStealthHeaders(req, referer)
	return c.httpClient.Do(req)
}

// FetchWithRetry performs Get with up to opts.MaxRetries attempts. Between
// attempts it sleeps 2^attempt*1000ms plus jitter(500..1500ms); a 403/429
// response forces an additional jitter(3000..6000ms) before the next
// attempt. The final attempt's response (or error) is returned regardless
// of status.
func (c *StealthClient) FetchWithRetry(ctx context.Context, urlStr, referer string) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		resp, err := c.Get(ctx, urlStr, referer)
		lastResp, lastErr = resp, err

		if err == nil && resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt == c.opts.MaxRetries {
			break
		}

		if resp != nil {
			drainAndClose(resp)
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		backoff += randRangeMs(500, 1500)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if err == nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) {
			extra := randRangeMs(3000, 6000)
			select {
			case <-time.After(extra):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return lastResp, lastErr
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// Sleep pauses for a randomized interval, matching the scraper warm-up
// behavior in spec.md §4.1 ("sleeping a randomized interval").
func Sleep(ctx context.Context, minMs, maxMs int) error {
	select {
	case <-time.After(randRangeMs(minMs, maxMs)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SessionCookie returns this client's stable-per-burst session cookie for vendor.
func (c *StealthClient) SessionCookie(vendor string) string {
	return sessionCookie(vendor, c.burstSeed)
}
