package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"medharvest/internal/adapters/observability"
)

type Config struct {
	Headless   bool
	NavTimeout time.Duration
	MaxRetries int
	RetryBase  time.Duration
	DelayMin   time.Duration
	DelayMax   time.Duration
}

// Session owns one headless browser process with automation fingerprints
// masked. Fetch opens a fresh tab per page; the session itself is reused for
// the whole run. It implements domain.PageFetcher.
type Session struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	if cfg.DelayMax <= cfg.DelayMin {
		cfg.DelayMin, cfg.DelayMax = time.Second, 3*time.Second
	}

	w, h := randomViewport()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(randomUserAgent()),
		chromedp.WindowSize(w, h),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// launch now so a broken Chrome install fails fast
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	log.Info().Int("viewport_w", w).Int("viewport_h", h).Bool("headless", cfg.Headless).Msg("browser session ready")
	return &Session{cfg: cfg, allocCancel: allocCancel, browserCtx: browserCtx, browserCancel: browserCancel}, nil
}

// Fetch navigates to url with retries and exponential backoff, simulates
// human scrolling to trigger lazy-loaded content, and returns the rendered
// HTML. After the final retry the last error is returned; Fetch never panics
// and never aborts sibling work.
func (s *Session) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Debug().Str("url", url).Int("attempt", attempt+1).Msg("navigating")

		start := time.Now()
		html, err := s.fetchOnce(url)
		if err == nil {
			observability.ObserveNavigation("browser", "ok", time.Since(start))
			return html, nil
		}
		lastErr = err
		observability.ObserveNavigation("browser", "retry", 0)
		log.Warn().Str("url", url).Int("attempt", attempt+1).Err(err).Msg("navigation failed")

		if attempt < s.cfg.MaxRetries {
			wait := s.cfg.RetryBase << uint(attempt)
			wait += time.Duration(rand.Int63n(int64(wait / 2)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	observability.ObserveNavigation("browser", "failed", 0)
	return "", lastErr
}

// installStealth registers the fingerprint mask on the current tab. The
// registration is scoped to one CDP session, so every fresh tab runs it
// before its first navigation.
func installStealth(ctx context.Context) error {
	_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
	return err
}

func (s *Session) fetchOnce(url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	defer cancel()
	tabCtx, cancelT := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancelT()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(installStealth),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(s.humanize),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// humanize performs a staged scroll to the bottom with randomized pauses and
// mouse movement between steps.
func (s *Session) humanize(ctx context.Context) error {
	steps := 3 + rand.Intn(3)
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		script := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %.2f)", frac)
		if err := chromedp.Evaluate(script, nil).Do(ctx); err != nil {
			return err
		}
		x := float64(100 + rand.Intn(1000))
		y := float64(100 + rand.Intn(600))
		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.randomDelay()):
		}
	}
	return nil
}

func (s *Session) randomDelay() time.Duration {
	return s.cfg.DelayMin + time.Duration(rand.Int63n(int64(s.cfg.DelayMax-s.cfg.DelayMin)))
}

// Close tears the browser down. Safe to call once cancellation fires.
func (s *Session) Close() {
	s.browserCancel()
	s.allocCancel()
}
