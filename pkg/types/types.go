// Package types defines core domain types used throughout the application.
package types

// Subtitle describes one subtitle track discovered during a scrape.
// Network observation only populates URL; Label and Lang are reserved for
// richer DOM extraction.
type Subtitle struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

// ScrapeResult is the outcome of one scrape call. URLs holds discovered HLS
// manifest URLs in discovery order; it is never nil, and empty means the
// scrape ran to completion without the page revealing a manifest.
type ScrapeResult struct {
	URLs      []string   `json:"urls"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
}

// ProbeResult reports the reachability of one discovered URL.
type ProbeResult struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}
