package httpfetch

import (
	"strings"
	"sync/atomic"
)

// ProxyScheme is the transport scheme of a pooled proxy entry.
type ProxyScheme string

const (
	ProxyHTTP   ProxyScheme = "http"
	ProxyHTTPS  ProxyScheme = "https"
	ProxySOCKS4 ProxyScheme = "socks4"
	ProxySOCKS5 ProxyScheme = "socks5"
)

// ProxyEntry is one parsed proxy from the pool's configuration source.
type ProxyEntry struct {
	Scheme ProxyScheme
	URL    string
}

// ProxyPool rotates through a fixed set of proxies. Safe for concurrent use;
// the round-robin cursor is a single atomic counter, so occasional repeats
// under contention are acceptable (spec.md §9).
type ProxyPool struct {
	entries []ProxyEntry
	cursor  uint64
}

// NewProxyPool parses a comma-separated list of proxy URLs into a pool.
// Entries without an explicit scheme default to "http".
func NewProxyPool(commaList string) *ProxyPool {
	pool := &ProxyPool{}
	for _, raw := range strings.Split(commaList, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		pool.entries = append(pool.entries, parseProxyEntry(raw))
	}
	return pool
}

func parseProxyEntry(raw string) ProxyEntry {
	scheme := ProxyHTTP
	switch {
	case strings.HasPrefix(raw, "socks5://"):
		scheme = ProxySOCKS5
	case strings.HasPrefix(raw, "socks4://"):
		scheme = ProxySOCKS4
	case strings.HasPrefix(raw, "https://"):
		scheme = ProxyHTTPS
	case strings.HasPrefix(raw, "http://"):
		scheme = ProxyHTTP
	}
	return ProxyEntry{Scheme: scheme, URL: raw}
}

// Empty reports whether the pool has no configured proxies.
func (p *ProxyPool) Empty() bool {
	return p == nil || len(p.entries) == 0
}

// NextProxy returns the next proxy in round-robin order.
func (p *ProxyPool) NextProxy() (ProxyEntry, bool) {
	if p.Empty() {
		return ProxyEntry{}, false
	}
	idx := atomic.AddUint64(&p.cursor, 1) - 1
	return p.entries[idx%uint64(len(p.entries))], true
}

// RandomProxy returns a pseudo-random proxy from the pool, using the
// package's shared RNG source.
func (p *ProxyPool) RandomProxy() (ProxyEntry, bool) {
	if p.Empty() {
		return ProxyEntry{}, false
	}
	return p.entries[randIntn(len(p.entries))], true
}
