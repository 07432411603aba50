package fingerprint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile represents a recognized TLS fingerprint profile.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // standard go TLS
	ProfileRandom  Profile = "random" // randomized uTLS profile
)

var helloIDs = map[Profile]utls.ClientHelloID{
	ProfileChrome:  utls.HelloChrome_Auto,
	ProfileFirefox: utls.HelloFirefox_Auto,
	ProfileSafari:  utls.HelloIOS_Auto,
	ProfileRandom:  utls.HelloRandomizedALPN,
}

// Profiles lists every accepted profile name, sorted.
func Profiles() []string {
	names := []string{string(ProfileGo)}
	for p := range helloIDs {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// ParseProfile validates a profile name. An empty name selects ProfileChrome.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProfileChrome, nil
	}
	if p == ProfileGo {
		return p, nil
	}
	if _, ok := helloIDs[p]; ok {
		return p, nil
	}
	return "", fmt.Errorf("fingerprint: unknown profile %q (want one of %s)", s, strings.Join(Profiles(), ", "))
}

// Transport returns an http.RoundTripper configured with the specified
// TLS fingerprint profile. If the profile is "go", it returns a standard
// http.Transport. Otherwise the TLS handshake is performed by utls.UClient.
// proxyFunc is optional.
func Transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error)) (http.RoundTripper, error) {
	return newTransport(p, proxyFunc, nil)
}

// newTransport accepts a base utls config so tests can trust self-signed
// certificates.
func newTransport(p Profile, proxyFunc func(*http.Request) (*url.URL, error), base *utls.Config) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFunc != nil {
		transport.Proxy = proxyFunc
	}
	if p == ProfileGo {
		return transport, nil
	}

	helloID, ok := helloIDs[p]
	if !ok {
		return nil, fmt.Errorf("fingerprint: unknown profile %q", p)
	}

	dial := transport.DialContext
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		cfg := &utls.Config{}
		if base != nil {
			cfg = base.Clone()
		}
		cfg.ServerName = host

		uConn := utls.UClient(tcpConn, cfg, helloID)
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("fingerprint: utls handshake with %s failed: %w", host, err)
		}
		return uConn, nil
	}

	return transport, nil
}
