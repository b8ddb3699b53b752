package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address, preferring proxy headers
// over the socket peer.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		// first hop in the chain is the client
		first, _, _ := strings.Cut(forwarded, ",")
		if candidate := strings.TrimSpace(first); candidate != "" {
			return candidate
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
