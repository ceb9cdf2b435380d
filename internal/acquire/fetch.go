package acquire

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FetchOptions configures the HTTP fetcher.
type FetchOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	MaxBytes   int64
	HostRate   rate.Limit
	HostBurst  int
}

// Fetcher downloads source documents over HTTP with per-host rate
// limiting, retry with backoff, and a hard size cap.
type Fetcher struct {
	client *http.Client
	opts   FetchOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 20 << 20 // 20 MiB
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "scorecard-cli/1.0"
	}
	if opts.HostRate == 0 {
		opts.HostRate = 4
	}
	if opts.HostBurst == 0 {
		opts.HostBurst = 4
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *Fetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.HostRate, f.opts.HostBurst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch downloads a URL and returns its body and content type. Bodies
// larger than the configured cap are truncated at the cap.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "acquire: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	lim := f.limiterFor(rawURL)

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := lim.Wait(ctx); err != nil {
			return nil, "", eris.Wrap(err, "acquire: rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Debug("acquire: fetch failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("acquire: http %d from %s", resp.StatusCode, rawURL)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, "", eris.Errorf("acquire: unexpected status %d from %s", resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes))
		ct := resp.Header.Get("Content-Type")
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			f.backoff(ctx, attempt)
			continue
		}
		return body, ct, nil
	}

	return nil, "", eris.Wrap(lastErr, "acquire: all retries exhausted")
}

func (f *Fetcher) backoff(ctx context.Context, attempt int) {
	base := 500 * time.Millisecond
	maxBackoff := 10 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// looksBlocked reports whether a fetched page looks like a bot wall
// rather than content.
func looksBlocked(body []byte) bool {
	if len(body) < 2048 {
		head := strings.ToLower(string(body))
		for _, marker := range []string{
			"access denied", "captcha", "are you a robot",
			"enable javascript", "cloudflare", "request blocked",
		} {
			if strings.Contains(head, marker) {
				return true
			}
		}
	}
	return false
}
