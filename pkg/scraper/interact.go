package scraper

import (
	"stream-scout-go/pkg/logging"
)

// Frame is the minimal surface of one document frame the interaction engine
// needs: find-and-click by selector, and script evaluation. The rod page
// adapter in session.go satisfies it; tests substitute fakes.
type Frame interface {
	// Click finds the first element matching selector and clicks it,
	// returning an error if the element is absent or the click fails.
	Click(selector string) error

	// Eval runs a script in the frame's context, discarding its result.
	Eval(script string) error
}

// FrameTree re-enumerates the live frames of a page: the main frame plus
// every nested iframe reachable at call time. The tree is dynamic: frames
// appear and disappear as scripts run, so callers traverse it fresh on
// every interaction round instead of caching frame handles.
type FrameTree interface {
	Frames() []Frame
}

// overlaySelectors dismiss consent dialogs, ad overlays, and player modals.
// Ordered from generic close-icon classes through the close buttons of the
// two player libraries we meet most (video.js, JW Player) to accessible
// labels.
var overlaySelectors = []string{
	`[class*="close"]`,
	`.vjs-close-button`,
	`.jw-icon-close`,
	`[aria-label="Close"]`,
}

// playSelectors trigger playback. Ordered from most specific and safest
// (accessible labels, named big-play-buttons) down to the riskiest broad
// fallback that clicks anything button-like; the order minimizes accidental
// clicks on unrelated UI across unknown page layouts.
var playSelectors = []string{
	`[aria-label="Play"]`,
	`.vjs-big-play-button`,
	`.jw-display-icon-container`,
	`[title="Play"]`,
	`[class*="play-button"]`,
	`[class*="play"]`,
	`button, [role="button"]`,
}

// autoplayJS forces every video element in the document to start: muted so
// autoplay policies allow it, playsinline so mobile-style engines don't
// hijack into native fullscreen. Per-element failures are swallowed
// in-page.
const autoplayJS = `() => {
	const videos = document.querySelectorAll('video');
	for (const v of videos) {
		try {
			v.muted = true;
			v.setAttribute('playsinline', '');
			const p = v.play();
			if (p && p.catch) p.catch(() => {});
		} catch (e) {}
	}
	return videos.length;
}`

// Engine applies prioritized selector heuristics to dismiss overlays and
// trigger playback on pages whose markup it has never seen.
type Engine struct {
	log *logging.Logger
}

// NewEngine creates an interaction engine.
func NewEngine(log *logging.Logger) *Engine {
	return &Engine{log: log.WithComponent("interact")}
}

// TryClickSelectors walks an ordered selector table and clicks the first
// element that can be found and clicked, reporting whether any click
// landed. Lookup and click failures are swallowed; the next selector is
// simply tried.
func (e *Engine) TryClickSelectors(f Frame, selectors []string) bool {
	for _, sel := range selectors {
		if err := f.Click(sel); err != nil {
			continue
		}
		e.log.Debug("clicked element", "selector", sel)
		return true
	}
	return false
}

// CloseOverlays opportunistically dismisses whatever overlay covers the
// player. The result is ignored; a page without overlays is not an error.
func (e *Engine) CloseOverlays(f Frame) {
	e.TryClickSelectors(f, overlaySelectors)
}

// Play attempts to trigger playback via the selector table and then,
// unconditionally, forces any video element to autoplay via script
// injection. Cross-origin frames that refuse script access fail silently.
func (e *Engine) Play(f Frame) {
	e.TryClickSelectors(f, playSelectors)
	if err := f.Eval(autoplayJS); err != nil {
		e.log.Debug("autoplay injection failed", "error", err)
	}
}

// InteractAllFrames runs one interaction round: overlay dismissal followed
// by play triggering on every frame present when the call starts. Frames
// created during the round are picked up by the next round, not this one.
func (e *Engine) InteractAllFrames(tree FrameTree) {
	frames := tree.Frames()
	e.log.Debug("interaction round", "frames", len(frames))
	for _, f := range frames {
		e.CloseOverlays(f)
		e.Play(f)
	}
}
