// Package browser provides the shared headless-browser session used to
// render listing and detail pages. One Session holds one browser process;
// every Render call runs in its own tab that is always closed before the
// call returns, even on error.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/auctionscope/auctionscope/internal/logger"
)

// maskScript removes the most obvious automation marker before any page
// script runs. The target site serves empty listings to clients that
// expose navigator.webdriver.
const maskScript = `
Object.defineProperty(navigator, 'webdriver', {
    get: () => undefined,
    configurable: true
});
delete Object.getPrototypeOf(navigator).webdriver;
`

// userAgents is a pool of current desktop user agents; each Session picks
// one at random.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// RandomUserAgent returns a random entry from the desktop user-agent pool.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Config holds session configuration.
type Config struct {
	UserAgent  string
	NavTimeout time.Duration // full page navigation budget
	Headless   bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:  RandomUserAgent(),
		NavTimeout: 60 * time.Second,
		Headless:   true,
	}
}

// RenderOptions controls a single Render call.
type RenderOptions struct {
	// WaitSelector is a CSS selector to wait for after navigation.
	// Failing to find it within WaitTimeout is recoverable: the page
	// HTML is still returned with SelectorFound=false.
	WaitSelector string
	WaitTimeout  time.Duration
	NavTimeout   time.Duration // overrides the session default when set
}

// PageContent is the outcome of one Render call.
type PageContent struct {
	URL           string
	HTML          string
	SelectorFound bool
	FetchedAt     time.Time
}

// Session owns a browser allocator shared by all Render calls.
type Session struct {
	cfg      Config
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewSession creates a browser session.
func NewSession(cfg Config) *Session {
	if cfg.UserAgent == "" {
		cfg.UserAgent = RandomUserAgent()
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = DefaultConfig().NavTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1200+rand.Intn(720), 800+rand.Intn(280)),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	logger.Debug("browser session created", "user_agent", cfg.UserAgent)

	return &Session{
		cfg:      cfg,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Render navigates to the URL in a fresh tab, optionally waits for a
// selector, and returns the rendered HTML. The tab is closed before
// returning. Navigation failure is fatal for the call; a selector wait
// timeout is not.
func (s *Session) Render(ctx context.Context, targetURL string, opts RenderOptions) (PageContent, error) {
	result := PageContent{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	tabCtx, closeTab := chromedp.NewContext(s.allocCtx)
	defer closeTab()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	navTimeout := opts.NavTimeout
	if navTimeout == 0 {
		navTimeout = s.cfg.NavTimeout
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, navTimeout)
	defer cancelNav()

	err := chromedp.Run(navCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(targetURL),
	)
	if err != nil {
		logger.Debug("navigation failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("failed to render %s: %w", targetURL, err)
	}

	if opts.WaitSelector != "" {
		waitTimeout := opts.WaitTimeout
		if waitTimeout == 0 {
			waitTimeout = 15 * time.Second
		}
		waitCtx, cancelWait := context.WithTimeout(tabCtx, waitTimeout)
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(opts.WaitSelector)); err != nil {
			logger.Warn("selector not found within timeout",
				"url", targetURL,
				"selector", opts.WaitSelector,
				"timeout", waitTimeout)
		} else {
			result.SelectorFound = true
		}
		cancelWait()
	}

	htmlCtx, cancelHTML := context.WithTimeout(tabCtx, 10*time.Second)
	defer cancelHTML()

	var html string
	if err := chromedp.Run(htmlCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return result, fmt.Errorf("failed to read rendered HTML of %s: %w", targetURL, err)
	}
	result.HTML = html

	logger.Debug("page rendered",
		"url", targetURL,
		"html_size", len(html),
		"selector_found", result.SelectorFound)
	return result, nil
}

// Close releases the browser process.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
