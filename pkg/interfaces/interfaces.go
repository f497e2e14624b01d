// Package interfaces defines the core abstractions for the scraping service.
package interfaces

import (
	"context"
	"net/http"

	"stream-scout-go/pkg/types"
)

// ProviderScraper resolves a video-hosting page URL into playable media
// manifest URLs, optionally with subtitle tracks. An empty result is a valid
// outcome distinct from an error: the page loaded but never revealed a
// manifest.
type ProviderScraper interface {
	// Scrape returns the HLS manifest URLs observed while driving the page.
	Scrape(ctx context.Context, targetURL string) ([]string, error)

	// ScrapeWithSubtitles additionally collects subtitle track URLs from
	// network traffic and from the rendered document.
	ScrapeWithSubtitles(ctx context.Context, targetURL string) (*types.ScrapeResult, error)
}

// HTTPClient abstracts HTTP operations for testability. DoBrowserLike
// carries a browser TLS fingerprint for hosts that reject plain Go clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
	DoBrowserLike(req *http.Request) (*http.Response, error)
}
