// Package scraper drives a headless browser against a video-hosting page
// and extracts HLS manifest and subtitle URLs from the traffic it
// generates, escalating from passive observation to heuristic interaction
// to bounded polling.
package scraper

import (
	"context"
	"time"

	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/httpclient"
	"stream-scout-go/pkg/logging"
	"stream-scout-go/pkg/types"
	"stream-scout-go/pkg/urlutil"
)

// stage names one step of the discovery state machine.
type stage int

const (
	stageNavigate stage = iota
	stagePassiveWait
	stageInteractFirst
	stageWaitFirst
	stageInteractSecond
	stagePoll
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageNavigate:
		return "navigate"
	case stagePassiveWait:
		return "passive_wait"
	case stageInteractFirst:
		return "interact_1"
	case stageWaitFirst:
		return "wait_1"
	case stageInteractSecond:
		return "interact_2"
	case stagePoll:
		return "poll"
	case stageDone:
		return "done"
	}
	return "unknown"
}

// session is what the orchestrator needs from a live browser session.
// *Session satisfies it; tests substitute fakes.
type session interface {
	Navigate(ctx context.Context, targetURL string) error
	Frames() []Frame
	DOMSubtitleSources(ctx context.Context) []string
	Close()
}

// frameTreeFunc adapts a session's frame enumeration to the interaction
// engine's FrameTree, keeping the traversal fresh on every round.
type frameTreeFunc func() []Frame

func (f frameTreeFunc) Frames() []Frame { return f() }

// Scraper discovers manifest and subtitle URLs on arbitrary pages. One
// Scraper serves concurrent calls; each call owns its own session and
// collector.
type Scraper struct {
	cfg    *config.Config
	log    *logging.Logger
	client *httpclient.Client
	engine *Engine

	// newSession is swappable for tests.
	newSession func(ctx context.Context, cfg *config.Config, log *logging.Logger, collector *Collector, client *httpclient.Client) (session, error)
}

// New creates a scraper backed by a real browser session per call.
func New(cfg *config.Config, log *logging.Logger, client *httpclient.Client) *Scraper {
	return &Scraper{
		cfg:    cfg,
		log:    log.WithComponent("scraper"),
		client: client,
		engine: NewEngine(log),
		newSession: func(ctx context.Context, cfg *config.Config, log *logging.Logger, collector *Collector, client *httpclient.Client) (session, error) {
			return NewSession(ctx, cfg, log, collector, client)
		},
	}
}

// Scrape discovers manifest URLs on the target page. An empty slice with a
// nil error means the page produced no observable manifest traffic.
func (s *Scraper) Scrape(ctx context.Context, targetURL string) ([]string, error) {
	result, err := s.run(ctx, targetURL, false)
	if err != nil {
		return nil, err
	}
	return result.URLs, nil
}

// ScrapeWithSubtitles discovers manifest URLs plus subtitle tracks, merging
// network-observed subtitle traffic with references found in the rendered
// document.
func (s *Scraper) ScrapeWithSubtitles(ctx context.Context, targetURL string) (*types.ScrapeResult, error) {
	return s.run(ctx, targetURL, true)
}

// run executes the discovery state machine. Escalation stops as soon as a
// manifest is observed; subtitle discovery rides along and never extends
// the schedule on its own.
func (s *Scraper) run(ctx context.Context, targetURL string, withSubtitles bool) (*types.ScrapeResult, error) {
	start := time.Now()
	log := s.log.WithURL(targetURL)

	collector := NewCollector(s.log, s.cfg.BlockHeavy)
	sess, err := s.newSession(ctx, s.cfg, s.log, collector, s.client)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	found := func() bool { return collector.Manifests().Len() > 0 }
	tree := frameTreeFunc(sess.Frames)

	st := stageNavigate
	for st != stageDone {
		log.Debug("entering stage", "stage", st.String())

		switch st {
		case stageNavigate:
			if err := sess.Navigate(ctx, targetURL); err != nil {
				return nil, err
			}
			st = stagePassiveWait

		case stagePassiveWait:
			if err := s.wait(ctx, s.cfg.PassiveWait); err != nil {
				return nil, err
			}
			if withSubtitles {
				s.mergeDOMSubtitles(ctx, sess, collector, targetURL)
			}
			if found() {
				st = stageDone
			} else {
				st = stageInteractFirst
			}

		case stageInteractFirst:
			s.engine.InteractAllFrames(tree)
			st = stageWaitFirst

		case stageWaitFirst:
			if err := s.wait(ctx, s.cfg.InteractWait); err != nil {
				return nil, err
			}
			if found() {
				st = stageDone
			} else {
				st = stageInteractSecond
			}

		case stageInteractSecond:
			s.engine.InteractAllFrames(tree)
			st = stagePoll

		case stagePoll:
			if err := s.poll(ctx, found); err != nil {
				return nil, err
			}
			st = stageDone
		}
	}

	result := &types.ScrapeResult{URLs: collector.Manifests().Values()}
	if withSubtitles {
		for _, u := range collector.Subtitles().Values() {
			result.Subtitles = append(result.Subtitles, types.Subtitle{URL: u})
		}
	}

	log.WithDuration(time.Since(start)).Info("scrape finished",
		"manifests", len(result.URLs),
		"subtitles", len(result.Subtitles))
	return result, nil
}

// mergeDOMSubtitles folds document-level subtitle references into the
// collector's subtitle set, resolving relative values against the page URL.
// Values are taken as-is, with no suffix filtering: an element that declares
// a subtitle track points at one even when the URL carries no extension.
// Best-effort: scan failures leave the set untouched.
func (s *Scraper) mergeDOMSubtitles(ctx context.Context, sess session, collector *Collector, pageURL string) {
	for _, src := range sess.DOMSubtitleSources(ctx) {
		collector.Subtitles().Add(urlutil.ResolveURL(src, pageURL))
	}
}

// wait sleeps for d while traffic accumulates, honoring cancellation.
func (s *Scraper) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poll checks the found condition at the configured interval until it holds
// or the poll deadline passes. Exhausting the deadline is not an error; the
// caller returns whatever was accumulated.
func (s *Scraper) poll(ctx context.Context, found func() bool) error {
	deadline := time.NewTimer(s.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if found() {
				return nil
			}
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
