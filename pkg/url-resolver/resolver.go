package urlresolver

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidURL is returned when the input cannot be turned into a ParsedURL.
var ErrInvalidURL = errors.New("invalid url")

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// ParsedURL is a URL decomposed into the parts needed to open a connection
// and write a request line.
type ParsedURL struct {
	Scheme string
	Host   string
	// Path includes the query string, if any. It is never empty.
	Path string
	Port int
}

// Resolve normalizes user input into a ParsedURL.
// Input without an http:// or https:// prefix is treated as https.
// The host is lowercased. No DNS resolution is done here.
func Resolve(raw string) (ParsedURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParsedURL{}, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return fromURL(u)
}

func fromURL(u *url.URL) (ParsedURL, error) {
	p := ParsedURL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   strings.ToLower(u.Hostname()),
		Path:   u.RequestURI(),
	}
	if p.Scheme != SchemeHTTP && p.Scheme != SchemeHTTPS {
		return ParsedURL{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if p.Host == "" {
		return ParsedURL{}, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, u.String())
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return ParsedURL{}, fmt.Errorf("%w: bad port %q", ErrInvalidURL, port)
		}
		p.Port = n
	} else {
		p.Port = defaultPort(p.Scheme)
	}
	return p, nil
}

func defaultPort(scheme string) int {
	if scheme == SchemeHTTPS {
		return 443
	}
	return 80
}

// Secure reports whether the connection must be wrapped in TLS.
func (p ParsedURL) Secure() bool {
	return p.Scheme == SchemeHTTPS
}

// HostHeader returns the value for the Host request header.
// The port is only included when it differs from the scheme default.
func (p ParsedURL) HostHeader() string {
	host := p.Host
	if strings.Contains(host, ":") {
		// IPv6 literal
		host = "[" + host + "]"
	}
	if p.Port != defaultPort(p.Scheme) {
		return host + ":" + strconv.Itoa(p.Port)
	}
	return host
}

// String returns the normalized URL. It is what cache keys are derived from.
func (p ParsedURL) String() string {
	return p.Scheme + "://" + p.HostHeader() + p.Path
}

// ResolveReference resolves a (possibly relative) Location header value
// against p.
func (p ParsedURL) ResolveReference(location string) (ParsedURL, error) {
	base, err := url.Parse(p.String())
	if err != nil {
		return ParsedURL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return ParsedURL{}, fmt.Errorf("%w: location %q: %v", ErrInvalidURL, location, err)
	}
	return fromURL(base.ResolveReference(ref))
}
