package phantom

import (
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Browser user agents rotated across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// Stealth randomizes request pacing, user agents, and proxy selection so
// retrieval traffic does not present a stable fingerprint.
type Stealth struct {
	minDelay time.Duration
	maxDelay time.Duration
	proxies  []*url.URL
	rng      *rand.Rand
}

// NewStealth builds a stealth profile. Delays default to 1-5 seconds;
// invalid proxy entries are dropped.
func NewStealth(minDelayMS, maxDelayMS int, proxies []string) *Stealth {
	minDelay := time.Duration(minDelayMS) * time.Millisecond
	maxDelay := time.Duration(maxDelayMS) * time.Millisecond
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if maxDelay < minDelay {
		maxDelay = 5 * time.Second
	}

	parsed := make([]*url.URL, 0, len(proxies))
	for _, raw := range proxies {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
			parsed = append(parsed, u)
		}
	}

	return &Stealth{
		minDelay: minDelay,
		maxDelay: maxDelay,
		proxies:  parsed,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns a randomized pause between requests.
func (s *Stealth) Delay() time.Duration {
	if s.maxDelay == s.minDelay {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int63n(int64(s.maxDelay-s.minDelay)))
}

// UserAgent returns a randomized browser user agent.
func (s *Stealth) UserAgent() string {
	return userAgents[s.rng.Intn(len(userAgents))]
}

// ApplyHeaders sets randomized browser-like headers on a request.
func (s *Stealth) ApplyHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("User-Agent", s.UserAgent())
}

// Proxy picks a random configured proxy, or nil when none are configured.
// The signature matches http.Transport.Proxy.
func (s *Stealth) Proxy(*http.Request) (*url.URL, error) {
	if len(s.proxies) == 0 {
		return nil, nil
	}
	return s.proxies[s.rng.Intn(len(s.proxies))], nil
}
