package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/httpclient"
	"stream-scout-go/pkg/logging"
)

// pointerDelay is injected before every heuristic click to mimic human
// pointer travel; instant clicks trip anti-bot heuristics on some players.
const pointerDelay = 50 * time.Millisecond

// selectorTimeout bounds each individual element lookup so one sluggish
// frame cannot eat the whole interaction round.
const selectorTimeout = 2 * time.Second

// maxFrameDepth caps iframe recursion; embedded players nest one or two
// levels deep in practice.
const maxFrameDepth = 5

// Session owns one isolated browsing context: a launched (or remotely
// attached) Chromium with a single stealth page whose traffic is
// intercepted and fed to a Collector. It is created by a scrape call and
// torn down unconditionally when that call ends.
type Session struct {
	cfg       *config.Config
	log       *logging.Logger
	collector *Collector

	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

// NewSession launches the browser, prepares a page for navigation, and
// binds traffic interception to the collector. The page is configured but
// not navigated.
func NewSession(ctx context.Context, cfg *config.Config, log *logging.Logger, collector *Collector, client *httpclient.Client) (*Session, error) {
	s := &Session{
		cfg:       cfg,
		log:       log.WithComponent("session"),
		collector: collector,
	}

	controlURL, err := s.resolveControlURL(ctx, client)
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	s.browser = browser

	page, err := stealth.Page(browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating page: %w", err)
	}
	s.page = page

	if err := s.configurePage(); err != nil {
		s.Close()
		return nil, err
	}

	s.attachCollector()
	return s, nil
}

// resolveControlURL either launches a local Chromium with the session's
// launch flags or discovers the websocket endpoint of a remote one.
func (s *Session) resolveControlURL(ctx context.Context, client *httpclient.Client) (string, error) {
	if remote := s.cfg.BrowserRemoteURL; remote != "" {
		if strings.HasPrefix(remote, "ws://") || strings.HasPrefix(remote, "wss://") {
			return remote, nil
		}
		return probeDevTools(ctx, client, remote)
	}

	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(true).
		Set("autoplay-policy", "no-user-gesture-required").
		Set("mute-audio").
		Set("ignore-certificate-errors").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if s.cfg.BrowserPath != "" {
		l = l.Bin(s.cfg.BrowserPath)
	}
	if s.cfg.Proxy != "" {
		l = l.Proxy(s.cfg.Proxy)
	}
	s.launch = l

	u, err := l.Context(ctx).Launch()
	if err != nil {
		return "", fmt.Errorf("launching browser: %w", err)
	}
	return u, nil
}

// probeDevTools asks a remote devtools endpoint for its websocket URL via
// the /json/version handshake Chrome exposes.
func probeDevTools(ctx context.Context, client *httpclient.Client, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/json/version", nil)
	if err != nil {
		return "", fmt.Errorf("building devtools probe: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing devtools endpoint %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("devtools endpoint %s returned status %d", base, resp.StatusCode)
	}

	var payload struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding devtools response: %w", err)
	}
	if payload.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("devtools endpoint %s exposes no websocket URL", base)
	}
	return payload.WebSocketDebuggerURL, nil
}

// configurePage fixes the viewport and user agent before navigation.
func (s *Session) configurePage() error {
	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("setting viewport: %w", err)
	}

	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: s.cfg.UserAgent,
	}); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}
	return nil
}

// attachCollector enables traffic interception and subscribes the
// collector to request and response lifecycle events. All handlers are
// best-effort: nothing here may abort the session.
func (s *Session) attachCollector() {
	router := s.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if s.collector.ObserveRequest(h.Request.URL().String(), h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		// Interception is an optimization; discovery still works through
		// the network events below.
		s.log.Warn("request interception unavailable", "error", err)
	} else {
		s.router = router
		go router.Run()
	}

	go s.page.EachEvent(
		func(ev *proto.NetworkRequestWillBeSent) {
			s.collector.ObserveRequestSent(ev.RequestID, ev.Request.URL)
		},
		func(ev *proto.NetworkResponseReceived) {
			s.collector.ObserveResponse(ev.RequestID, ev.Response.URL)
		},
	)()
}

// Navigate drives the page to targetURL and waits for DOMContentLoaded,
// not full load, since media players keep network activity open
// indefinitely. A timeout here is fatal to the scrape call.
func (s *Session) Navigate(ctx context.Context, targetURL string) error {
	page := s.page.Context(ctx).Timeout(s.cfg.NavTimeout)

	wait := page.WaitEvent(&proto.PageDomContentEventFired{})
	if err := page.Navigate(targetURL); err != nil {
		return fmt.Errorf("navigating to %s: %w", targetURL, err)
	}
	wait()

	if err := page.GetContext().Err(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", targetURL, err)
	}
	return nil
}

// Frames re-enumerates the page's live frame tree: the main frame plus
// every nested iframe reachable right now. Cross-origin frames that refuse
// access are skipped. The result is never cached; callers re-query on each
// interaction round.
func (s *Session) Frames() []Frame {
	frames := []Frame{&rodFrame{page: s.page, log: s.log}}
	s.appendChildFrames(&frames, s.page, 0)
	return frames
}

func (s *Session) appendChildFrames(out *[]Frame, p *rod.Page, depth int) {
	if depth >= maxFrameDepth {
		return
	}

	elements, err := p.Timeout(selectorTimeout).Elements("iframe")
	if err != nil {
		s.log.Debug("iframe enumeration failed", "error", err)
		return
	}

	for _, el := range elements {
		child, err := el.Frame()
		if err != nil {
			s.log.Debug("iframe access denied", "error", err)
			continue
		}
		*out = append(*out, &rodFrame{page: child, log: s.log})
		s.appendChildFrames(out, child, depth+1)
	}
}

// subtitleTracksJS collects explicit subtitle references from the rendered
// document: track elements of kind subtitles with a resolved src, and any
// element carrying a data-track or data-subtitle attribute.
const subtitleTracksJS = `() => {
	const found = [];
	for (const t of document.querySelectorAll('track[kind="subtitles"]')) {
		if (t.src) found.push(t.src);
	}
	for (const el of document.querySelectorAll('[data-track], [data-subtitle]')) {
		for (const attr of ['data-track', 'data-subtitle']) {
			const v = (el.getAttribute(attr) || '').trim();
			if (v) found.push(v);
		}
	}
	return found;
}`

// DOMSubtitleSources scans the rendered document for subtitle references
// that never hit the network. Best-effort: any evaluation failure yields an
// empty list.
func (s *Session) DOMSubtitleSources(ctx context.Context) []string {
	obj, err := s.page.Context(ctx).Timeout(s.cfg.CommandTimeout).Eval(subtitleTracksJS)
	if err != nil {
		s.log.Debug("subtitle DOM scan failed", "error", err)
		return nil
	}

	var out []string
	for _, v := range obj.Value.Arr() {
		if src := v.Str(); src != "" {
			out = append(out, src)
		}
	}
	return out
}

// Close tears the session down. It is called on every exit path of a
// scrape call; teardown failures are swallowed so they never mask the
// call's own outcome.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launch != nil {
		s.launch.Kill()
		s.launch.Cleanup()
	}
}

// rodFrame adapts a rod page (main frame or nested iframe) to the
// interaction engine's Frame interface.
type rodFrame struct {
	page *rod.Page
	log  *logging.Logger
}

// Click locates the first element matching selector and clicks it with a
// small pointer delay. Absent elements and failed clicks both surface as
// errors for the engine to swallow.
func (f *rodFrame) Click(selector string) error {
	page := f.page.Timeout(selectorTimeout)

	found, el, err := page.Has(selector)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no element matches %q", selector)
	}

	time.Sleep(pointerDelay)
	return el.Timeout(selectorTimeout).Click(proto.InputMouseButtonLeft, 1)
}

// Eval runs a script in the frame, discarding the result.
func (f *rodFrame) Eval(script string) error {
	_, err := f.page.Timeout(selectorTimeout).Eval(script)
	return err
}
