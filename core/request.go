package core

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the caller address. When proxyHeader is set it is the
// last hop of that header, the one the trusted proxy appended; earlier hops
// are written by the client and ignored. A missing or unparsable last hop
// falls back to RemoteAddr. The result is not normalized.
func ClientIP(r *http.Request, proxyHeader string) string {
	if proxyHeader != "" {
		if forwarded := r.Header.Values(proxyHeader); len(forwarded) > 0 {
			last := forwarded[len(forwarded)-1]
			if i := strings.LastIndexByte(last, ','); i >= 0 {
				last = last[i+1:]
			}
			last = strings.TrimSpace(last)
			if _, err := netip.ParseAddr(last); err == nil {
				return last
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// no port
		return r.RemoteAddr
	}
	return ip
}

// ClientIP is the request caller address under the current config.
func (a *App) ClientIP(r *http.Request) string {
	return ClientIP(r, a.Config().Server.ClientIpProxyHeader)
}
