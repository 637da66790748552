package fetcher

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// PlaceholderName is used when nothing usable remains after sanitizing.
const PlaceholderName = "downloaded_image"

const maxFilenameLen = 200

var (
	unsafeChars   = regexp.MustCompile(`[^\w.-]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// Sanitize reduces an arbitrary name candidate to a safe basename: percent
// escapes decoded, directory components stripped, anything outside
// [A-Za-z0-9._-] replaced with underscores and runs collapsed. Empty
// results become PlaceholderName; output is capped at 200 characters.
func Sanitize(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	// A trailing separator means the final path segment is empty
	if strings.HasSuffix(name, "/") {
		name = ""
	} else {
		name = path.Base(name)
		if name == "." || name == ".." {
			name = ""
		}
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscoreRun.ReplaceAllString(name, "_")
	if name == "" {
		name = PlaceholderName
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name
}
