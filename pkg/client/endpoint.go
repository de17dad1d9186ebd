package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/chenglch/xcat3client/pkg"
	log "github.com/sirupsen/logrus"
)

// Endpoint is the normalised base URL of the xCAT3 service, without the API
// version suffix.
type Endpoint struct {
	url *url.URL
}

// ParseEndpoint validates raw and trims a trailing slash and API version.
// An empty raw value selects pkg.DefaultEndpoint.
func ParseEndpoint(raw string) (*Endpoint, error) {
	if strings.TrimSpace(raw) == "" {
		raw = pkg.DefaultEndpoint
	}

	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	trimmed = strings.TrimSuffix(trimmed, pkg.APIVersion)
	trimmed = strings.TrimRight(trimmed, "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, pkg.NewInvalidArgument("xcat3-url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, pkg.NewInvalidArgument("xcat3-url", fmt.Errorf("unsupported scheme %q, use http or https", u.Scheme))
	}
	if u.Host == "" {
		return nil, pkg.NewInvalidArgument("xcat3-url", fmt.Errorf("missing host in %q", raw))
	}
	return &Endpoint{url: u}, nil
}

// String returns the base URL
func (e *Endpoint) String() string {
	return e.url.String()
}

// Secure reports whether the endpoint uses https
func (e *Endpoint) Secure() bool {
	return e.url.Scheme == "https"
}

// Resolve returns the absolute URL of an API path, for example
// "nodes/power?target=on".
func (e *Endpoint) Resolve(path string) string {
	return e.url.String() + pkg.APIVersion + "/" + strings.TrimLeft(path, "/")
}

// HostPort returns the host and port the endpoint connects to
func (e *Endpoint) HostPort() (string, int) {
	defaultPort := 80
	if e.Secure() {
		defaultPort = 443
	}

	host := e.url.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := e.url.Port()
	if port == "" {
		return host, defaultPort
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		log.Warnf("Could not parse endpoint port: %v", err)
		return host, defaultPort
	}
	return host, p
}
