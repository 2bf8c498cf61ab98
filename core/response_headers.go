package core

import (
	"net/http"
)

// HeadersJson are set on every API response.
var HeadersJson = map[string]string{
	"Content-Type": "application/json; charset=utf-8",

	// no MIME sniffing of API bodies
	"X-Content-Type-Options": "nosniff",

	// responses carry visit history and blocklist state, never cache them
	"Cache-Control": "no-store, no-cache, must-revalidate",

	"X-Frame-Options": "DENY",

	// a JSON body is never an active document
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// setHeaders applies header maps in order; later maps win on conflicts.
func setHeaders(w http.ResponseWriter, headers ...map[string]string) {
	for _, headerMap := range headers {
		for key, value := range headerMap {
			w.Header().Set(key, value)
		}
	}
}
