package rawresponse

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Response is the decoded text of an HTTP response: status line, header
// block, blank line and body. It is what gets cached and returned to callers,
// so it is kept as a flat string and only parsed on lookup.
type Response string

// Decode turns the bytes received from an origin into a Response.
// It never fails: invalid byte sequences are replaced with U+FFFD.
// A chunked body is de-chunked and its Transfer-Encoding line dropped, since
// the result no longer carries chunk framing.
func Decode(raw []byte) Response {
	head, body, delim, found := splitBytes(raw)
	if !found {
		return Response(strings.ToValidUTF8(string(raw), "\uFFFD"))
	}
	headText := strings.ToValidUTF8(string(head), "\uFFFD")
	header := parseHeader(headText)

	if isChunked(header) {
		if dechunked, err := io.ReadAll(httputil.NewChunkedReader(bytes.NewReader(body))); err == nil {
			body = dechunked
			headText = dropHeaderLines(headText, "Transfer-Encoding")
		}
	}

	return Response(headText + delim + decodeBody(body, header.Get("Content-Type")))
}

func decodeBody(body []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if charset := params["charset"]; charset != "" {
			if enc, err := htmlindex.Get(charset); err == nil {
				if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
					return strings.ToValidUTF8(string(decoded), "\uFFFD")
				}
			}
		}
	}
	return strings.ToValidUTF8(string(body), "\uFFFD")
}

func isChunked(header http.Header) bool {
	for _, v := range header.Values("Transfer-Encoding") {
		if strings.Contains(strings.ToLower(v), "chunked") {
			return true
		}
	}
	return false
}

func dropHeaderLines(head, name string) string {
	lines := strings.Split(head, "\n")
	out := lines[:0]
	for i, line := range lines {
		if i > 0 {
			if n, _, found := strings.Cut(line, ":"); found && strings.EqualFold(strings.TrimSpace(n), name) {
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// headerEnd returns the index and text of the first blank line, whichever
// line ending it uses, or -1.
func headerEnd(s string) (int, string) {
	crlf := strings.Index(s, "\r\n\r\n")
	lf := strings.Index(s, "\n\n")
	if lf >= 0 && (crlf < 0 || lf < crlf) {
		return lf, "\n\n"
	}
	if crlf >= 0 {
		return crlf, "\r\n\r\n"
	}
	return -1, ""
}

func splitBytes(b []byte) (head, body []byte, delim string, found bool) {
	i, delim := headerEnd(string(b))
	if i < 0 {
		return b, nil, "", false
	}
	return b[:i], b[i+len(delim):], delim, true
}

func (r Response) split() (string, string) {
	s := string(r)
	i, delim := headerEnd(s)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(delim):]
}

// StatusLine returns the first line of the response.
func (r Response) StatusLine() string {
	head, _ := r.split()
	line, _, _ := strings.Cut(head, "\n")
	return strings.TrimRight(line, "\r")
}

// StatusCode returns the numeric status, or 0 if the status line is garbled.
func (r Response) StatusCode() int {
	fields := strings.Fields(r.StatusLine())
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

// Header parses the header block. Field order within a name is kept.
func (r Response) Header() http.Header {
	head, _ := r.split()
	return parseHeader(head)
}

// Get returns the first value of the named header.
func (r Response) Get(name string) string {
	return r.Header().Get(name)
}

// Values returns all values of the named header.
func (r Response) Values(name string) []string {
	return r.Header().Values(name)
}

// Body returns everything after the blank line.
func (r Response) Body() string {
	_, body := r.split()
	return body
}

func (r Response) String() string {
	return string(r)
}

func parseHeader(head string) http.Header {
	header := make(http.Header)
	lines := strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n")
	for _, line := range lines[1:] {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		header.Add(name, strings.TrimSpace(value))
	}
	return header
}
