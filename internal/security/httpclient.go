package security

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// newTransport returns a transport that requires TLS 1.2 or newer.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// CreateSecureHTTPClient creates an HTTP client for third-party APIs.
func CreateSecureHTTPClient(timeout time.Duration) *http.Client {
	transport := newTransport()
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{Transport: transport, Timeout: timeout}
}

// CreateFetchHTTPClient creates an HTTP client for user-supplied URLs. The
// dialer re-checks the connected address so a hostname cannot be rebound to
// a private address after validation; redirects are validated too.
func CreateFetchHTTPClient(v *URLValidator, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if v.IsBlockedIP(net.ParseIP(host)) {
				return fmt.Errorf("%w: connection to %s", ErrBlockedURL, host)
			}
			return nil
		},
	}

	transport := newTransport()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			_, err := v.Validate(req.Context(), req.URL.String())
			return err
		},
	}
}
