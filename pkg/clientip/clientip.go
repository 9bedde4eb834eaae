package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the address rate limits and logs are keyed by: the
// peer address of r without its port. Proxy headers are not consulted.
// IPv4-mapped IPv6 peers are reported in IPv4 form so both spellings of one
// client share a bucket.
func RealClientIP(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
		return ip.String()
	}
	return host
}
