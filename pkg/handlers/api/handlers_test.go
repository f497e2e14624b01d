package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"stream-scout-go/pkg/appctx"
	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/logging"
	"stream-scout-go/pkg/types"
)

// fakeScraper returns canned results and records the URL it was asked for.
type fakeScraper struct {
	urls      []string
	subtitles []types.Subtitle
	err       error
	gotURL    string
}

func (f *fakeScraper) Scrape(ctx context.Context, targetURL string) ([]string, error) {
	f.gotURL = targetURL
	return f.urls, f.err
}

func (f *fakeScraper) ScrapeWithSubtitles(ctx context.Context, targetURL string) (*types.ScrapeResult, error) {
	f.gotURL = targetURL
	if f.err != nil {
		return nil, f.err
	}
	return &types.ScrapeResult{URLs: f.urls, Subtitles: f.subtitles}, nil
}

// fakeHTTPClient records which transport path each request took.
type fakeHTTPClient struct {
	plainCalls       []string
	browserLikeCalls []string
	status           int
	err              error
}

func (f *fakeHTTPClient) respond(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.plainCalls = append(f.plainCalls, req.URL.String())
	return f.respond(req)
}

func (f *fakeHTTPClient) DoBrowserLike(req *http.Request) (*http.Response, error) {
	f.browserLikeCalls = append(f.browserLikeCalls, req.URL.String())
	return f.respond(req)
}

func newTestHandlers(scraper *fakeScraper) *Handlers {
	log := logging.New("debug", false, io.Discard)
	cfg := &config.Config{BaseURL: "http://localhost:7870"}
	ctx := appctx.New(cfg, log).WithScraper(scraper)
	return NewHandlers(ctx)
}

func doRequest(h *Handlers, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleScrape(t *testing.T) {
	scraper := &fakeScraper{urls: []string{"https://cdn.example.com/master.m3u8"}}
	h := newTestHandlers(scraper)

	page := url.QueryEscape("https://host.example.com/watch?v=1")
	rec := doRequest(h, "/api/scrape?url="+page)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if scraper.gotURL != "https://host.example.com/watch?v=1" {
		t.Errorf("scraped %q, want the decoded page URL", scraper.gotURL)
	}

	var resp scrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.URLs) != 1 || resp.URLs[0] != scraper.urls[0] {
		t.Errorf("urls = %v, want %v", resp.URLs, scraper.urls)
	}
	if resp.Probes != nil {
		t.Errorf("probes = %v, want absent without probe=1", resp.Probes)
	}
}

func TestHandleScrapeEmptyResult(t *testing.T) {
	h := newTestHandlers(&fakeScraper{urls: []string{}})

	rec := doRequest(h, "/api/scrape?url="+url.QueryEscape("https://host.example.com/watch"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (empty result is not an error)", rec.Code)
	}

	var resp scrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.URLs == nil || len(resp.URLs) != 0 {
		t.Errorf("urls = %v, want empty array", resp.URLs)
	}
}

func TestHandleScrapeBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing url", "/api/scrape"},
		{"empty url", "/api/scrape?url="},
		{"relative url", "/api/scrape?url=%2Fwatch"},
		{"unsupported scheme", "/api/scrape?url=" + url.QueryEscape("ftp://host/file")},
		{"no host", "/api/scrape?url=" + url.QueryEscape("https:///watch")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(newTestHandlers(&fakeScraper{}), tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleScrapeFailure(t *testing.T) {
	h := newTestHandlers(&fakeScraper{err: errors.New("browser launch failed")})

	rec := doRequest(h, "/api/scrape?url="+url.QueryEscape("https://host.example.com/watch"))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHandleScrapeSubtitles(t *testing.T) {
	scraper := &fakeScraper{
		urls:      []string{"https://cdn.example.com/master.m3u8"},
		subtitles: []types.Subtitle{{URL: "https://cdn.example.com/en.vtt"}},
	}
	h := newTestHandlers(scraper)

	rec := doRequest(h, "/api/scrape/subtitles?url="+url.QueryEscape("https://host.example.com/watch"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp scrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Subtitles) != 1 || resp.Subtitles[0].URL != "https://cdn.example.com/en.vtt" {
		t.Errorf("subtitles = %v, want the one track", resp.Subtitles)
	}
}

func TestHandleScrapeProbesWithBrowserFingerprint(t *testing.T) {
	scraper := &fakeScraper{urls: []string{
		"https://cdn.example.com/master.m3u8",
		"https://cdn2.example.com/alt.m3u8",
	}}
	client := &fakeHTTPClient{status: http.StatusOK}
	h := newTestHandlers(scraper)
	h.ctx.WithHTTPClient(client)

	rec := doRequest(h, "/api/scrape?probe=1&url="+url.QueryEscape("https://host.example.com/watch"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp scrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Probes) != 2 {
		t.Fatalf("probes = %v, want one per discovered URL", resp.Probes)
	}
	for i, p := range resp.Probes {
		if p.URL != scraper.urls[i] || p.StatusCode != http.StatusOK {
			t.Errorf("probes[%d] = %+v, want %q with status 200", i, p, scraper.urls[i])
		}
	}

	// CDNs behind anti-bot layers reject the native handshake, so probes
	// must take the browser-fingerprint path.
	if len(client.browserLikeCalls) != 2 {
		t.Errorf("browser-like probes = %d, want 2", len(client.browserLikeCalls))
	}
	if len(client.plainCalls) != 0 {
		t.Errorf("plain probes = %v, want none", client.plainCalls)
	}
}

func TestHandleScrapeProbeFailure(t *testing.T) {
	scraper := &fakeScraper{urls: []string{"https://cdn.example.com/master.m3u8"}}
	client := &fakeHTTPClient{err: errors.New("connection refused")}
	h := newTestHandlers(scraper)
	h.ctx.WithHTTPClient(client)

	rec := doRequest(h, "/api/scrape?probe=1&url="+url.QueryEscape("https://host.example.com/watch"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (probe failures are per-URL, not fatal)", rec.Code)
	}

	var resp scrapeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Probes) != 1 || resp.Probes[0].Error == "" {
		t.Errorf("probes = %+v, want one entry carrying the error", resp.Probes)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(newTestHandlers(&fakeScraper{}), "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want ok", resp["status"])
	}
}

func TestHandleIndex(t *testing.T) {
	rec := doRequest(newTestHandlers(&fakeScraper{}), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}
