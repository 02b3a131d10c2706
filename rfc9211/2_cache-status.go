// Package rfc9211 implements the vocabulary of the Cache-Status HTTP
// response header field (RFC 9211).
package rfc9211

import (
	"fmt"
	"strings"
)

// §  2.  The Cache-Status HTTP Response Header Field
// §
// §     The Cache-Status HTTP response header field indicates caches' handling
// §     of the request corresponding to the response it occurs within.
// §
// §     Its value is a List (Section 3.1 of [STRUCTURED-FIELDS]):
// §
// §     Cache-Status   = sf-list
// §
// §     Each member of the list represents a cache that has handled the
// §     request.  The first member represents the cache closest to the origin
// §     server, and the last member represents the cache closest to the user
// §     (possibly including the user agent's cache itself, if it appends a
// §     value).

// CacheName identifies this cache in Cache-Status values.
const CacheName = "go2web"

type Status string

const (
	StatusHit = Status("hit")
	StatusFwd = Status("fwd")
)

// §  2.2.  The fwd Parameter
// §
// §     "fwd" indicates that the request went forward towards the origin and
// §     why.
type FwdReason string

const (
	// The cache was configured to not handle this request.
	FwdBypass = FwdReason("bypass")

	// The request method's semantics require the request to be
	// forwarded.
	FwdMethod = FwdReason("method")

	// The cache did not contain any responses that matched the
	// request URI.
	FwdUriMiss = FwdReason("uri-miss")

	// The cache did not contain any responses that could be used to
	// satisfy this request (to be used when an implementation cannot
	// distinguish between uri-miss and vary-miss).
	FwdMiss = FwdReason("miss")

	// The cache was able to select a response for the request, but
	// it was stale.
	FwdStale = FwdReason("stale")
)

// CacheStatus is one member of a Cache-Status list.
type CacheStatus struct {
	Status    Status
	FwdReason FwdReason
	// §  2.3.  The fwd-status Parameter
	// §
	// §     "fwd-status" indicates what status code the next hop server returned
	// §     in response to the forwarded request.
	FwdStatus int
	// §  2.5.  The stored Parameter
	// §
	// §     "stored" indicates whether the cache stored the response (Section 3
	// §     of [HTTP-CACHING]); a true value indicates that it did.
	Stored bool
	// §  2.8.  The detail Parameter
	// §
	// §     "detail" allows implementations to convey additional information not
	// §     captured in other parameters, such as implementation-specific states
	// §     or other caching-related metrics.
	Detail string
}

func (cs *CacheStatus) Hit() {
	cs.Status = StatusHit
	cs.FwdReason = ""
}

func (cs *CacheStatus) Forward(reason FwdReason) {
	cs.Status = StatusFwd
	cs.FwdReason = reason
}

// String formats the status as a Cache-Status list member,
// e.g. `go2web; fwd=stale; fwd-status=304; detail=revalidated`.
func (cs CacheStatus) String() string {
	var b strings.Builder
	b.WriteString(CacheName)
	switch {
	case cs.Status == StatusHit:
		b.WriteString("; hit")
	case cs.Status == StatusFwd && cs.FwdReason != "":
		fmt.Fprintf(&b, "; fwd=%s", cs.FwdReason)
	}
	if cs.FwdStatus != 0 {
		fmt.Fprintf(&b, "; fwd-status=%d", cs.FwdStatus)
	}
	if cs.Stored {
		b.WriteString("; stored")
	}
	if cs.Detail != "" {
		fmt.Fprintf(&b, "; detail=%s", cs.Detail)
	}
	return b.String()
}
