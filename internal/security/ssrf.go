// Package security guards outbound requests made on behalf of the user.
package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrBlockedURL is returned for URLs that must not be fetched.
var ErrBlockedURL = errors.New("blocked URL")

// blockedCIDRs are ranges a fetched URL may not resolve into.
var blockedCIDRs = []string{
	// IPv4
	"0.0.0.0/8",          // "This" network
	"10.0.0.0/8",         // Class A private
	"172.16.0.0/12",      // Class B private
	"192.168.0.0/16",     // Class C private
	"127.0.0.0/8",        // Loopback
	"169.254.0.0/16",     // Link-local
	"100.64.0.0/10",      // Carrier-grade NAT
	"192.0.0.0/24",       // IETF Protocol Assignments
	"192.0.2.0/24",       // TEST-NET-1
	"198.51.100.0/24",    // TEST-NET-2
	"203.0.113.0/24",     // TEST-NET-3
	"198.18.0.0/15",      // Network benchmark tests
	"224.0.0.0/4",        // Multicast
	"240.0.0.0/4",        // Reserved
	"255.255.255.255/32", // Broadcast

	// IPv6
	"::/128",        // Unspecified
	"::1/128",       // Loopback
	"fe80::/10",     // Link-local
	"fc00::/7",      // Unique local
	"ff00::/8",      // Multicast
	"64:ff9b::/96",  // NAT64
	"100::/64",      // Discard prefix
	"2001:db8::/32", // Documentation
}

// Resolver looks up host addresses; *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// URLValidator rejects URLs that point at private or special-purpose
// networks, and non-http(s) schemes.
type URLValidator struct {
	blocked  []*net.IPNet
	resolver Resolver
}

// NewURLValidator creates a validator using the system resolver.
func NewURLValidator() *URLValidator {
	v := &URLValidator{resolver: net.DefaultResolver}
	for _, cidr := range blockedCIDRs {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			v.blocked = append(v.blocked, network)
		}
	}
	return v
}

// WithResolver returns a copy of v that resolves hosts with r.
func (v *URLValidator) WithResolver(r Resolver) *URLValidator {
	cp := *v
	cp.resolver = r
	return &cp
}

// IsBlockedIP reports whether ip lies in a blocked range.
func (v *URLValidator) IsBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	for _, network := range v.blocked {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// Validate parses rawURL and checks its scheme and every address its host
// resolves to.
func (v *URLValidator) Validate(ctx context.Context, rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrBlockedURL)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrBlockedURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBlockedURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing hostname", ErrBlockedURL)
	}
	lowerHost := strings.ToLower(host)
	if lowerHost == "localhost" || strings.HasSuffix(lowerHost, ".localhost") {
		return nil, fmt.Errorf("%w: localhost is not allowed", ErrBlockedURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if v.IsBlockedIP(ip) {
			return nil, fmt.Errorf("%w: blocked IP address %s", ErrBlockedURL, ip)
		}
		return u, nil
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: DNS resolution failed: %v", ErrBlockedURL, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s resolved to no addresses", ErrBlockedURL, host)
	}

	// Every resolved address must be allowed
	for _, addr := range addrs {
		if v.IsBlockedIP(addr.IP) {
			return nil, fmt.Errorf("%w: %s resolves to blocked IP %s", ErrBlockedURL, host, addr.IP)
		}
	}
	return u, nil
}

// DefaultURLValidator uses the system resolver.
var DefaultURLValidator = NewURLValidator()

// ValidateURLForSSRF validates rawURL with the default validator.
func ValidateURLForSSRF(ctx context.Context, rawURL string) (*url.URL, error) {
	return DefaultURLValidator.Validate(ctx, rawURL)
}
