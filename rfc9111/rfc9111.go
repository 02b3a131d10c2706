// Package rfc9111 implements the parts of HTTP Caching (RFC 9111) that a
// private, single-user cache needs: storability, freshness and validation.
//
// Files are named after the RFC sections they implement, and the relevant
// RFC text is quoted inline with a "§" prefix.
//
// The freshness model is simpler than the RFC's age calculation:
// the time a response was stored is the only clock, see Freshness.
package rfc9111

import (
	"net/http"
	"time"
)

// DefaultTTL is the freshness lifetime of responses that carry neither
// explicit expiration nor validators.
const DefaultTTL = time.Hour

// Verdict is the outcome of evaluating a stored response.
type Verdict int

const (
	// Stale responses must not be used without a successful validation.
	Stale Verdict = iota
	// Fresh responses may be served without contacting the origin.
	Fresh
	// MustRevalidate responses are usable, but only after the origin confirms
	// them with a 304 (Not Modified).
	MustRevalidate
)

func (v Verdict) String() string {
	switch v {
	case Fresh:
		return "fresh"
	case MustRevalidate:
		return "must-revalidate"
	default:
		return "stale"
	}
}

// IsValid reports whether a stored response is usable, either directly or
// after revalidation.
func IsValid(header http.Header, storedAt, now time.Time, defaultTTL time.Duration) bool {
	return Freshness(header, storedAt, now, defaultTTL) != Stale
}

// MayStore is the inverse of MustNotStore.
func MayStore(statusCode int, header http.Header) bool {
	return !MustNotStore(statusCode, header)
}
