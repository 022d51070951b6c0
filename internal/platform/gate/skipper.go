package gate

import "strings"

// assetExtensions lists file types the gate never needs to inspect.
var assetExtensions = []string{
	".css", ".js", ".map", ".ico",
	".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp",
	".woff", ".woff2",
}

// SkipPath reports whether the gate should pass the request through without
// any identity work: health checks and static assets.
func SkipPath(path string) bool {
	if path == "/healthz" || path == "/health/db" || path == "/favicon.ico" {
		return true
	}
	if strings.HasPrefix(path, "/static/") {
		return true
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
