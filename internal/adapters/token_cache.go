package adapters

import (
	"sync"
	"time"
)

// tokenCache holds a short-lived access token, refreshed with a safety
// margin before expiry (spec.md §4.1).
type tokenCache struct {
	mu          sync.Mutex
	token       string
	expiresAt   time.Time
	safetyMargin time.Duration
}

func newTokenCache(safetyMargin time.Duration) *tokenCache {
	if safetyMargin <= 0 {
		safetyMargin = 60 * time.Second
	}
	return &tokenCache{safetyMargin: safetyMargin}
}

// valid reports whether the cached token can still be used.
func (c *tokenCache) valid() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", false
	}
	if time.Now().Add(c.safetyMargin).After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

func (c *tokenCache) set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
}
