package site

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"medharvest/internal/adapters/observability"
	"medharvest/internal/domain"
)

const maxResponseBytes = 4 << 20

// Client is the static fetcher used for sitemap XML, robots.txt and as the
// non-JS fallback for listing pages. It rate-limits client-side and retries
// transient failures with exponential backoff, honoring Retry-After.
type Client struct {
	hc         *http.Client
	rl         *rate.Limiter
	ua         string
	maxRetries int
	retryBase  time.Duration
}

func NewClient(rps int, ua string) *Client {
	if rps <= 0 {
		rps = 2
	}
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	}
	return &Client{
		hc:         &http.Client{Timeout: 20 * time.Second},
		rl:         rate.NewLimiter(rate.Limit(rps), rps),
		ua:         ua,
		maxRetries: 3,
		retryBase:  500 * time.Millisecond,
	}
}

// Fetch implements domain.PageFetcher.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			log.Debug().Str("url", url).Int("attempt", i+1).Msg("retrying fetch")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", c.ua)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			observability.ObserveNavigation("static", "retry", 0)
			if i < c.maxRetries && sleepCtx(ctx, backoff(c.retryBase, i)) {
				continue
			}
			break
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			resp.Body.Close()
			if err != nil {
				return "", err
			}
			observability.ObserveNavigation("static", "ok", time.Since(start))
			return string(body), nil

		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			observability.ObserveNavigation("static", "failed", 0)
			return "", domain.ErrNotFound

		case http.StatusForbidden, http.StatusUnauthorized:
			resp.Body.Close()
			observability.ObserveNavigation("static", "failed", 0)
			return "", domain.ErrBlocked

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(c.retryBase, i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			observability.ObserveNavigation("static", "retry", 0)
			if i < c.maxRetries && sleepCtx(ctx, wait) {
				continue
			}

		default:
			resp.Body.Close()
			observability.ObserveNavigation("static", "failed", 0)
			return "", fmt.Errorf("bad status %d", resp.StatusCode)
		}
		break
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	observability.ObserveNavigation("static", "failed", 0)
	return "", lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns base * 2^i with up to +50% jitter to avoid lockstep retries
// across concurrent workers.
func backoff(base time.Duration, i int) time.Duration {
	d := base << uint(i)
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return d
	}
	f := float64(b[0]) / 255.0
	return d + time.Duration(0.5*f*float64(d))
}
