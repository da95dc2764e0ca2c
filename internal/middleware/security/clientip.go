package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// privateRanges are the networks whose forwarded headers are honoured by
// default: loopback and the RFC 1918 blocks, which is where a reverse proxy
// in front of this app would live.
var privateRanges = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// ClientIPResolver resolves the originating client address of a request.
// Forwarded headers are honoured only when the direct peer is a trusted
// proxy, so a client connecting straight to the server cannot spoof the
// address used for rate limiting and logging.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver builds a resolver that trusts the private ranges plus
// any extra CIDRs, typically taken from configuration.
func NewClientIPResolver(extra ...string) (*ClientIPResolver, error) {
	cidrs := make([]string, 0, len(privateRanges)+len(extra))
	cidrs = append(cidrs, privateRanges...)
	cidrs = append(cidrs, extra...)

	trusted := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %q: %w", cidr, err)
		}
		trusted = append(trusted, network)
	}
	return &ClientIPResolver{trusted: trusted}, nil
}

// ClientIP returns the client address for r. X-Forwarded-For and X-Real-IP
// are consulted only when the connection comes from a trusted proxy;
// otherwise the connection address wins.
func (cr *ClientIPResolver) ClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	peer := net.ParseIP(direct)
	if peer == nil || !cr.isTrusted(peer) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the originating client; the rest are proxies.
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return direct
}

func (cr *ClientIPResolver) isTrusted(ip net.IP) bool {
	for _, network := range cr.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
