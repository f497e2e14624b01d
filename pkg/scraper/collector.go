package scraper

import (
	"sync"

	"github.com/go-rod/rod/lib/proto"

	"stream-scout-go/pkg/classify"
	"stream-scout-go/pkg/logging"
)

// Collector observes a session's request and response traffic and
// accumulates discovered manifest and subtitle URLs into two append-only
// sets. It is purely observational: nothing downstream consumes its return
// values except the blocking decision, and no observation failure may abort
// the session.
type Collector struct {
	manifests  *URLSet
	subtitles  *URLSet
	blockHeavy bool
	log        *logging.Logger

	mu          sync.Mutex
	requestURLs map[proto.NetworkRequestID]string
}

// NewCollector creates a collector with exclusive write access to fresh sets.
func NewCollector(log *logging.Logger, blockHeavy bool) *Collector {
	return &Collector{
		manifests:   NewURLSet(),
		subtitles:   NewURLSet(),
		blockHeavy:  blockHeavy,
		log:         log.WithComponent("collector"),
		requestURLs: make(map[proto.NetworkRequestID]string),
	}
}

// Manifests returns the manifest URL set owned by this collector.
func (c *Collector) Manifests() *URLSet {
	return c.manifests
}

// Subtitles returns the subtitle URL set owned by this collector.
func (c *Collector) Subtitles() *URLSet {
	return c.subtitles
}

// record classifies one URL and files it into the matching set.
func (c *Collector) record(raw string) {
	switch {
	case classify.IsManifestURL(raw):
		if c.manifests.Add(raw) {
			c.log.Debug("manifest URL discovered", "url", raw)
		}
	case classify.IsSubtitleURL(raw):
		if c.subtitles.Add(raw) {
			c.log.Debug("subtitle URL discovered", "url", raw)
		}
	}
}

// ObserveRequest inspects one intercepted request and reports whether the
// resource policy wants it aborted. The URL is classified and recorded
// before the blocking decision so that a manifest served under a heavy
// resource type can never be lost to the policy.
func (c *Collector) ObserveRequest(rawURL string, resourceType proto.NetworkResourceType) bool {
	c.record(rawURL)
	return c.blockHeavy && classify.IsHeavyResource(resourceType)
}

// ObserveRequestSent records an outgoing request URL and remembers which
// request ID it belongs to, so the later response event can be matched back
// to its originating request. Redirect hops re-fire this event with the new
// URL under the same ID.
func (c *Collector) ObserveRequestSent(id proto.NetworkRequestID, rawURL string) {
	c.record(rawURL)
	c.mu.Lock()
	c.requestURLs[id] = rawURL
	c.mu.Unlock()
}

// ObserveResponse records both the response's own URL and the originating
// request's URL; after redirects the two can differ and either may be the
// one matching a manifest or subtitle pattern.
func (c *Collector) ObserveResponse(id proto.NetworkRequestID, responseURL string) {
	c.record(responseURL)

	c.mu.Lock()
	requestURL, ok := c.requestURLs[id]
	if ok {
		delete(c.requestURLs, id)
	}
	c.mu.Unlock()

	if ok && requestURL != responseURL {
		c.record(requestURL)
	}
}
