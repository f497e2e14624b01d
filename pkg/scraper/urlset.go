package scraper

import "sync"

// URLSet is an append-only, insertion-ordered set of URL strings,
// deduplicated by exact string equality including the query string.
// Entries are never removed or rewritten; one set belongs to exactly one
// scrape call. Insertion is idempotent and commutative, so the browser's
// event delivery order never affects correctness.
type URLSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	urls []string
}

// NewURLSet creates an empty set.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add inserts a URL, reporting whether it was new. Empty strings are ignored.
func (s *URLSet) Add(raw string) bool {
	if raw == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[raw]; ok {
		return false
	}
	s.seen[raw] = struct{}{}
	s.urls = append(s.urls, raw)
	return true
}

// Len returns the number of distinct URLs recorded so far.
func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// Values returns the recorded URLs in discovery order. The result is a
// copy and is never nil.
func (s *URLSet) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}
