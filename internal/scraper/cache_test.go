package scraper

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestPageCache(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}

	if _, ok := cache.Get("https://example.com/a"); ok {
		t.Error("expected miss on empty cache")
	}

	if err := cache.Set("https://example.com/a", "<p>a</p>"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	page, ok := cache.Get("https://example.com/a")
	if !ok || page != "<p>a</p>" {
		t.Errorf("expected cached page, got %q, %v", page, ok)
	}
	if cache.Size() != 1 {
		t.Errorf("expected size 1, got %d", cache.Size())
	}
}

func TestPageCache_Expiry(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}

	for _, u := range []string{"old-1", "old-2", "fresh"} {
		if err := cache.Set(u, "<p></p>"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	stale := time.Now().Add(-2 * time.Hour)
	for _, u := range []string{"old-1", "old-2"} {
		if err := os.Chtimes(cache.path(u), stale, stale); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
	}

	if _, ok := cache.Get("old-1"); ok {
		t.Error("expected expired page to miss")
	}

	removed, err := cache.CleanExpired()
	if err != nil {
		t.Fatalf("CleanExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed (other expired on Get), got %d", removed)
	}
	if cache.Size() != 1 {
		t.Errorf("expected 1 page left, got %d", cache.Size())
	}
}

func TestCached(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache failed: %v", err)
	}
	f := &fakeFetcher{pages: map[string]string{"a": commentedPage}}

	cf := Cached(f, cache, false)
	for i := 0; i < 2; i++ {
		doc, err := cf.Fetch(context.Background(), "a")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if doc.Find("table#rushing").Length() != 1 {
			t.Errorf("fetch %d: expected restored table", i)
		}
	}
	if len(f.calls) != 1 {
		t.Errorf("expected second fetch served from cache, got %d calls", len(f.calls))
	}

	if _, err := Cached(f, cache, true).Fetch(context.Background(), "a"); err != nil {
		t.Fatalf("refresh Fetch failed: %v", err)
	}
	if len(f.calls) != 2 {
		t.Errorf("expected refresh to bypass cache, got %d calls", len(f.calls))
	}

	if _, err := cf.Fetch(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing page")
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("failed fetches must not be cached")
	}
}
