package redirect

import "strings"

// SanitizeNext validates a caller-supplied post-login destination and returns
// it unchanged if it is a same-origin absolute path. Anything else — absolute
// URLs, protocol-relative URLs ("//host/..."), or relative paths — returns ""
// and the caller falls back to its own default. Every externally supplied
// redirect target must pass through here before it ends up in a Location
// header.
func SanitizeNext(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, "http://") || strings.HasPrefix(next, "https://") {
		return ""
	}
	// Browsers treat "//host/path" as scheme-relative, i.e. off-site.
	if strings.HasPrefix(next, "//") {
		return ""
	}
	if !strings.HasPrefix(next, "/") {
		return ""
	}
	return next
}
