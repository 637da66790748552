package fetcher

import (
	"mime"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var looseFilenameRegex = regexp.MustCompile(`filename\*?=["']?([^"';]+)["']?`)

// mediaType extracts the lowercased MIME type from a Content-Type header,
// dropping parameters like charset.
func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	return strings.ToLower(mt)
}

// filenameFromHeader pulls a name out of a Content-Disposition header,
// handling both the plain filename and RFC 5987 filename* forms. Returns
// "" when the header carries none.
func filenameFromHeader(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err == nil {
		if filename := params["filename"]; filename != "" {
			return filename
		}
		if filename := params["filename*"]; filename != "" {
			if strings.HasPrefix(filename, "UTF-8''") {
				if decoded, err := url.PathUnescape(strings.TrimPrefix(filename, "UTF-8''")); err == nil {
					return decoded
				}
			}
			return filename
		}
		return ""
	}
	// Loose match for headers mime.ParseMediaType chokes on
	if m := looseFilenameRegex.FindStringSubmatch(header); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// declaredLength parses a Content-Length header. Absent or malformed
// values report ok=false and are ignored by the caller.
func declaredLength(header string) (int64, bool) {
	if header == "" {
		return 0, false
	}
	length, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil || length < 0 {
		return 0, false
	}
	return length, true
}
