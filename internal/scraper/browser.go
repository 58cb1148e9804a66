package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
)

// BrowserOptions configures the headless browser
type BrowserOptions struct {
	Headless bool
	// Bin overrides the Chromium binary; empty lets rod find or download one
	Bin string
	// Settle is how long to let scripts run after the load event
	Settle time.Duration
}

// BrowserFetcher loads pages in a headless Chromium so that script-rendered
// tables are present. One browser serves every Fetch until Close.
type BrowserFetcher struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	settle   time.Duration
}

// NewBrowserFetcher launches and connects to a browser. Callers must Close it.
func NewBrowserFetcher(opts BrowserOptions) (*BrowserFetcher, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	logger.Debug("browser launched", logger.Fields{"control_url": controlURL})

	return &BrowserFetcher{
		launcher: l,
		browser:  browser,
		settle:   opts.Settle,
	}, nil
}

// Fetch opens url in a new tab, waits for it to load and parses the rendered HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for page load: %w", err)
	}
	if f.settle > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.settle):
		}
	}

	raw, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading page HTML: %w", err)
	}

	return ParseDocument(strings.NewReader(raw))
}

// Close shuts the browser down and removes its profile directory
func (f *BrowserFetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
