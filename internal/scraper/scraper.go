package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
	"golang.org/x/time/rate"
)

const (
	UserAgent = "pfr-stats/1.0 (github.com/pfrederiksen/pfr-stats)"
	Timeout   = 30 * time.Second
	// DefaultWait keeps requests under the sites' limit of 20 per minute
	DefaultWait = 3 * time.Second
)

// Fetcher loads a page and returns its parsed document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher loads pages with a plain HTTP client
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// New creates an HTTPFetcher with the default timeout and User-Agent
func New() *HTTPFetcher {
	return NewHTTPFetcher(Timeout, UserAgent)
}

// NewHTTPFetcher creates an HTTPFetcher. Zero values fall back to the defaults.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch downloads and parses the page at url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return ParseDocument(resp.Body)
}

// throttled spaces out requests made through the wrapped Fetcher
type throttled struct {
	f       Fetcher
	limiter *rate.Limiter
}

// Throttle wraps f so that consecutive fetches start at least wait apart. The
// first fetch is not delayed. A non-positive wait disables throttling.
func Throttle(f Fetcher, wait time.Duration) Fetcher {
	if wait <= 0 {
		return f
	}
	return &throttled{f: f, limiter: rate.NewLimiter(rate.Every(wait), 1)}
}

func (t *throttled) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to fetch: %w", err)
	}
	return t.f.Fetch(ctx, url)
}

// FetchAll loads urls in order with f. The first failure aborts the run.
func FetchAll(ctx context.Context, f Fetcher, urls []string) ([]*goquery.Document, error) {
	docs := make([]*goquery.Document, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		doc, err := f.Fetch(ctx, u)
		logger.RecordTiming("fetch", time.Since(start))
		if err != nil {
			logger.Error("fetch failed", logger.Fields{"url": u}, err)
			return nil, fmt.Errorf("fetching %s: %w", u, err)
		}

		logger.IncrCounter("pages.fetched")
		logger.Debug("page fetched", logger.Fields{"url": u})
		docs = append(docs, doc)
	}

	return docs, nil
}
