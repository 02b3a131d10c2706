package rfc9111

import (
	"net/http"
	"time"
)

// §  4.2.  Freshness
// §
// §     A "fresh" response is one whose age has not yet exceeded its
// §     freshness lifetime.  Conversely, a "stale" response is one where it
// §     has.
// §
// §     The primary mechanism for determining freshness is for an origin
// §     server to provide an explicit expiration time in the future, using
// §     either the Expires header field (Section 5.3) or the max-age response
// §     directive (Section 5.2.2.1).
// §
// §     Since origin servers do not always provide explicit expiration times,
// §     caches are also allowed to use a heuristic to determine an expiration
// §     time under certain circumstances (see Section 4.2.2).
//
// Freshness evaluates a stored response header. The age of the response is
// measured from storedAt, the moment it was written to the cache.
// The first matching rule wins:
//
//  1. max-age: fresh while the age is below max-age.
//  2. Expires: fresh until the Expires date; an invalid date is stale.
//  3. ETag or Last-Modified: usable after revalidation.
//  4. otherwise: fresh while the age is below defaultTTL.
func Freshness(header http.Header, storedAt, now time.Time, defaultTTL time.Duration) Verdict {
	age := now.Sub(storedAt)
	cc := ParseCacheControl(header.Values("Cache-Control"))

	// §  *  If the max-age response directive (Section 5.2.2.1) is present,
	// §     use its value, or
	if maxAge, ok := cc.MaxAge(); ok {
		return freshIf(age < maxAge)
	}

	// §  *  If the Expires response header field (Section 5.3) is present, use
	// §     its value minus the value of the Date response header field [...]
	if expires, ok := getExpires(header); ok {
		return freshIf(!now.After(expires))
	}

	// §  4.3.  Validation
	// §
	// §     When a cache has one or more stored responses for a requested URI,
	// §     but cannot serve any of them (e.g., because they are not fresh, or
	// §     one cannot be chosen; see Section 4.1), it can use the conditional
	// §     request mechanism (Section 13 of [HTTP]) in the forwarded request to
	// §     give the next inbound server an opportunity to choose a valid stored
	// §     response to use, updating the stored metadata in the process, or to
	// §     replace the stored response(s) with a new response.
	if hasValidators(header) {
		return MustRevalidate
	}

	// §  4.2.2.  Calculating Heuristic Freshness
	// §
	// §     Since origin servers do not always provide explicit expiration times,
	// §     a cache MAY assign a heuristic expiration time when an explicit time
	// §     is not specified, employing algorithms that use other field values
	// §     (such as the Last-Modified time) to estimate a plausible expiration
	// §     time.
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return freshIf(age < defaultTTL)
}

func freshIf(fresh bool) Verdict {
	if fresh {
		return Fresh
	}
	return Stale
}
