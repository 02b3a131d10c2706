package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
)

// acceptSeparator joins the URL and the Accept value before hashing.
// A tab cannot appear in a normalized URL, so different (url, accept)
// pairs never produce the same hash input.
const acceptSeparator = "\t"

// Key returns the cache key for a normalized URL requested with the given
// Accept header value. It is a pure function of its inputs.
//
// The Accept value is part of the key because the same URL can return
// different representations depending on it (cf. RFC 9111 §4.1).
func Key(url, accept string) string {
	sum := sha256.Sum256([]byte(url + acceptSeparator + accept))
	return hex.EncodeToString(sum[:])
}
