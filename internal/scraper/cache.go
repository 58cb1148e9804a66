package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
)

// PageCache stores downloaded pages on disk, one file per URL. A page's age is
// its file's modification time.
type PageCache struct {
	dir string
	ttl time.Duration
}

// NewPageCache creates the cache directory if needed
func NewPageCache(dir string, ttl time.Duration) (*PageCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &PageCache{dir: dir, ttl: ttl}, nil
}

func (c *PageCache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".html")
}

// Get returns the cached page for url if present and not expired.
// Expired pages are removed.
func (c *PageCache) Get(url string) (string, bool) {
	path := c.path(url)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if time.Since(info.ModTime()) > c.ttl {
		_ = os.Remove(path)
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set stores page under url
func (c *PageCache) Set(url, page string) error {
	if err := os.WriteFile(c.path(url), []byte(page), 0644); err != nil {
		return fmt.Errorf("writing cached page: %w", err)
	}
	return nil
}

// CleanExpired removes expired pages and returns how many were removed
func (c *PageCache) CleanExpired() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > c.ttl {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// Size returns the number of cached pages
func (c *PageCache) Size() int {
	matches, _ := filepath.Glob(filepath.Join(c.dir, "*.html"))
	return len(matches)
}

type cachedFetcher struct {
	f       Fetcher
	cache   *PageCache
	refresh bool
}

// Cached wraps f so that pages are served from cache while fresh. With refresh
// set every page is fetched again and the cache overwritten.
func Cached(f Fetcher, cache *PageCache, refresh bool) Fetcher {
	return &cachedFetcher{f: f, cache: cache, refresh: refresh}
}

func (c *cachedFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if !c.refresh {
		if page, ok := c.cache.Get(url); ok {
			logger.IncrCounter("cache.hits")
			return ParseDocument(strings.NewReader(page))
		}
	}

	doc, err := c.f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	logger.IncrCounter("cache.misses")

	page, err := doc.Html()
	if err != nil {
		logger.Warn("rendering page for cache", logger.Fields{"url": url, "error": err.Error()})
		return doc, nil
	}
	if err := c.cache.Set(url, page); err != nil {
		logger.Warn("caching page", logger.Fields{"url": url, "error": err.Error()})
	}
	return doc, nil
}
