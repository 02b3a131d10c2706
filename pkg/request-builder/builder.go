package requestbuilder

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	// DefaultUserAgent is sent with every request unless the builder is
	// configured otherwise.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	// DefaultAccept is used when the caller does not supply an Accept header.
	DefaultAccept = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8"
)

// Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered header list with case-insensitive names.
// Names keep the case they were first set with.
type Header []Field

func (h Header) index(name string) int {
	for i, f := range h {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the named field, or "" if absent.
func (h Header) Get(name string) string {
	if i := h.index(name); i >= 0 {
		return h[i].Value
	}
	return ""
}

// Has reports whether the named field is present.
func (h Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Set replaces the value of an existing field in place, or appends it.
func (h *Header) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		(*h)[i].Value = value
		return
	}
	*h = append(*h, Field{Name: name, Value: value})
}

// Del removes the named field.
func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		*h = append((*h)[:i], (*h)[i+1:]...)
	}
}

// Clone returns a copy that can be modified independently.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	copy(out, h)
	return out
}

// Builder serializes HTTP/1.1 requests.
type Builder struct {
	UserAgent string
	Accept    string
}

// New returns a builder using the default User-Agent and Accept values.
func New() Builder {
	return Builder{UserAgent: DefaultUserAgent, Accept: DefaultAccept}
}

// Merge returns the header list as it will be sent: Host, User-Agent,
// Accept and Connection first, then the remaining caller fields in order.
// Host, User-Agent and Connection always override the caller.
func (b Builder) Merge(host string, headers Header) Header {
	userAgent := b.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	accept := headers.Get("Accept")
	if accept == "" {
		accept = b.Accept
	}
	if accept == "" {
		accept = DefaultAccept
	}
	merged := Header{
		{"Host", host},
		{"User-Agent", userAgent},
		{"Accept", accept},
		{"Connection", "close"},
	}
	for _, f := range headers {
		if merged.Has(f.Name) {
			continue
		}
		merged = append(merged, f)
	}
	return merged
}

// Build returns the wire bytes of a request.
// The body is appended verbatim after the blank line.
func (b Builder) Build(method, path, host string, headers Header, body []byte) []byte {
	if method == "" {
		method = "GET"
	}
	if path == "" {
		path = "/"
	}
	merged := b.Merge(host, headers)
	if len(body) > 0 && !merged.Has("Content-Length") {
		merged = append(merged, Field{"Content-Length", strconv.Itoa(len(body))})
	}

	var buf bytes.Buffer
	buf.WriteString(method + " " + path + " HTTP/1.1\r\n")
	for _, f := range merged {
		buf.WriteString(f.Name + ": " + f.Value + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}
