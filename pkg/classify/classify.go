// Package classify provides pure predicates that sort observed network
// traffic into manifest URLs, subtitle URLs, and blockable resource types.
package classify

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// pathOf strips the query string and fragment from a raw URL and lowercases
// the remainder. Malformed input is treated as an opaque path, so the
// predicates below are total over any string.
func pathOf(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(raw)
}

// IsManifestURL reports whether the URL path ends in .m3u8 (an HLS playlist),
// ignoring any query string, case-insensitively.
func IsManifestURL(raw string) bool {
	return strings.HasSuffix(pathOf(raw), ".m3u8")
}

// IsSubtitleURL reports whether the URL path ends in .vtt or .srt,
// ignoring any query string, case-insensitively.
func IsSubtitleURL(raw string) bool {
	p := pathOf(raw)
	return strings.HasSuffix(p, ".vtt") || strings.HasSuffix(p, ".srt")
}

// heavyResourceTypes never carry manifest or subtitle URLs in their own
// bodies but add load latency and noise, so their requests may be aborted.
var heavyResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage:      true,
	proto.NetworkResourceTypeStylesheet: true,
	proto.NetworkResourceTypeFont:       true,
	proto.NetworkResourceTypeMedia:      true,
}

// IsHeavyResource reports whether a request of this resource type is
// eligible for blocking. Callers must classify the request URL before
// acting on this: a manifest served with a heavy resource type must still
// be recorded.
func IsHeavyResource(t proto.NetworkResourceType) bool {
	return heavyResourceTypes[t]
}
