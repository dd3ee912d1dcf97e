package http

import (
	"net/http"
	"net/netip"
	"strings"
)

// trustedProxies may set forwarding headers.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
}

func isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the direct peer address, or the first forwarded
// address when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	host := r.RemoteAddr
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		host = ap.Addr().String()
	}

	direct, err := netip.ParseAddr(host)
	if err != nil || !isTrustedProxy(direct) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if a, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return a.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if a, err := netip.ParseAddr(xri); err == nil {
			return a.String()
		}
	}
	return host
}
