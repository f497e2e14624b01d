// Package api provides HTTP handlers for the scraping API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stream-scout-go/pkg/appctx"
	"stream-scout-go/pkg/logging"
	"stream-scout-go/pkg/types"
)

// Handlers contains all API handlers.
type Handlers struct {
	ctx *appctx.Context
	log *logging.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctx *appctx.Context) *Handlers {
	return &Handlers{
		ctx: ctx,
		log: ctx.Log.WithComponent("api"),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /", h.handleIndex)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /favicon.ico", h.handleFavicon)

	// Scrape routes
	mux.HandleFunc("GET /api/scrape", h.handleScrape)
	mux.HandleFunc("GET /api/scrape/subtitles", h.handleScrapeSubtitles)
}

// scrapeResponse is the wire shape of a scrape. Probes is present only when
// the caller asked for reachability checks.
type scrapeResponse struct {
	URLs      []string            `json:"urls"`
	Subtitles []types.Subtitle    `json:"subtitles,omitempty"`
	Probes    []types.ProbeResult `json:"probes,omitempty"`
}

// handleIndex serves a minimal info page.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>StreamScout</title></head>
<body>
    <h1>StreamScout</h1>
    <p>Headless-browser manifest and subtitle discovery.</p>
    <ul>
        <li><code>GET /api/scrape?url=&lt;page&gt;</code></li>
        <li><code>GET /api/scrape/subtitles?url=&lt;page&gt;</code></li>
        <li><code>GET /health</code></li>
    </ul>
</body>
</html>`)
}

// handleHealth reports liveness.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleScrape discovers manifest URLs on the target page.
func (h *Handlers) handleScrape(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.targetURL(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.scrapeDeadline())
	defer cancel()

	urls, err := h.ctx.Scraper.Scrape(ctx, targetURL)
	if err != nil {
		h.log.WithError(err).WithURL(targetURL).Error("scrape failed")
		h.writeError(w, http.StatusBadGateway, "scrape failed")
		return
	}

	resp := scrapeResponse{URLs: urls}
	if r.URL.Query().Get("probe") == "1" {
		resp.Probes = h.probeURLs(ctx, urls)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleScrapeSubtitles discovers manifest URLs plus subtitle tracks.
func (h *Handlers) handleScrapeSubtitles(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.targetURL(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.scrapeDeadline())
	defer cancel()

	result, err := h.ctx.Scraper.ScrapeWithSubtitles(ctx, targetURL)
	if err != nil {
		h.log.WithError(err).WithURL(targetURL).Error("scrape failed")
		h.writeError(w, http.StatusBadGateway, "scrape failed")
		return
	}

	resp := scrapeResponse{URLs: result.URLs, Subtitles: result.Subtitles}
	if r.URL.Query().Get("probe") == "1" {
		resp.Probes = h.probeURLs(ctx, result.URLs)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// targetURL extracts and validates the url query parameter, writing a 400
// response when it is missing or not an absolute http(s) URL.
func (h *Handlers) targetURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "missing url parameter")
		return "", false
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		h.writeError(w, http.StatusBadRequest, "url must be absolute http or https")
		return "", false
	}
	return raw, true
}

// scrapeDeadline bounds one scrape call: navigation plus every wait phase
// the escalation can reach, with headroom for launch and teardown.
func (h *Handlers) scrapeDeadline() time.Duration {
	cfg := h.ctx.Config
	return cfg.NavTimeout + cfg.PassiveWait + cfg.InteractWait + cfg.PollTimeout + 15*time.Second
}

// probeURLs issues a HEAD request to each discovered URL, reporting status
// or failure per URL. Bodies are never read; this checks reachability only.
// Probes carry the browser TLS fingerprint because media CDNs commonly sit
// behind anti-bot layers that reject Go's native handshake.
func (h *Handlers) probeURLs(ctx context.Context, urls []string) []types.ProbeResult {
	results := make([]types.ProbeResult, 0, len(urls))
	for _, u := range urls {
		results = append(results, h.probeURL(ctx, u))
	}
	return results
}

func (h *Handlers) probeURL(ctx context.Context, rawURL string) types.ProbeResult {
	result := types.ProbeResult{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := h.ctx.HTTPClient.DoBrowserLike(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	return result
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
