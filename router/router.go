package router

import (
	"net/http"
	"strings"
)

// Router registers handlers under "METHOD /path" patterns and serves them.
type Router interface {
	http.Handler
	Handle(pattern string, handler http.Handler)
	Register(chains Chains)
}

// SplitPattern splits "GET /api/visits" into method and path. A pattern
// without a method yields an empty method.
func SplitPattern(pattern string) (method, path string) {
	pattern = strings.TrimSpace(pattern)
	if m, p, ok := strings.Cut(pattern, " "); ok {
		return strings.ToUpper(m), strings.TrimSpace(p)
	}
	return "", pattern
}
