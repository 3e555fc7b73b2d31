package checker

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
	"upmon/config"
)

var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.10 Safari/605.1.1 Upmon Uptime",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.3 Upmon Uptime",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.3 Upmon Uptime",
}

func randomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

// Prober performs one reachability check: GET with manual redirect walking,
// a closed error-code set, and a single retry on transient failures.
type Prober struct {
	client       *http.Client
	timeout      time.Duration
	backoff      time.Duration
	maxRedirects int
}

// NewProber expects a client that does NOT follow redirects on its own
// (CheckRedirect returning http.ErrUseLastResponse).
func NewProber(cfg *config.CheckerConfig, client *http.Client) *Prober {
	return &Prober{
		client:       client,
		timeout:      cfg.ProbeTimeout,
		backoff:      cfg.RetryBackoff,
		maxRedirects: cfg.MaxRedirects,
	}
}

// Check probes the URL and retries exactly once, after a fixed backoff, when
// the first attempt fails with a transient code.
func (p *Prober) Check(ctx context.Context, rawURL string) int {
	status := p.probe(ctx, rawURL)

	if status != http.StatusOK && IsTransient(status) {
		select {
		case <-ctx.Done():
			return status
		case <-time.After(p.backoff):
		}
		status = p.probe(ctx, rawURL)
	}

	return status
}

// probe walks the redirect chain by hand, resolving each Location against
// the URL that produced it. The timeout budget covers the whole chain.
func (p *Prober) probe(ctx context.Context, rawURL string) int {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	current := rawURL

	for hop := 0; hop < p.maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, current, nil)
		if err != nil {
			return StatusUnknown
		}
		setProbeHeaders(req)

		resp, err := p.client.Do(req)
		if err != nil {
			return classifyProbeError(err)
		}

		// drain so the connection can be reused across hops
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		code := resp.StatusCode
		if !isRedirect(code) {
			return code
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return StatusInvalidRedirectLoc
		}

		next, err := resp.Request.URL.Parse(location)
		if err != nil {
			return StatusInvalidRedirectLoc
		}
		current = next.String()
	}

	return StatusTooManyRedirects
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// Browser-shaped headers; bare Go user agents get blocked by naive bot
// filters and skew the results.
func setProbeHeaders(req *http.Request) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
}
