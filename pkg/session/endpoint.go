package session

import (
	"net"
	"net/url"
	"strings"

	"zbws/pkg/core"
)

// ParseEndpoint validates a websocket URL and fills in the default port.
// Only ws and wss are accepted; anything else is a configuration error and is
// reported before any network I/O.
func ParseEndpoint(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, core.NewErrorf(core.ErrorTypeConfiguration, "connect", "the url can not be empty")
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "connect", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	var defaultPort string
	switch u.Scheme {
	case "ws":
		defaultPort = "80"
	case "wss":
		defaultPort = "443"
	default:
		return nil, core.NewErrorf(core.ErrorTypeConfiguration, "connect", "unsupported scheme %q: only ws(s) is supported", u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, core.NewErrorf(core.ErrorTypeConfiguration, "connect", "missing host in %q", raw)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), defaultPort)
	}

	return u, nil
}

// IsSecure reports whether the endpoint uses TLS.
func IsSecure(u *url.URL) bool {
	return u != nil && u.Scheme == "wss"
}
