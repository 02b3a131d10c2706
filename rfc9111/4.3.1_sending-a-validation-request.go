package rfc9111

import "net/http"

// §  4.3.1.  Sending a Validation Request
// §
// §     When generating a conditional request for validation, a cache either
// §     starts with a request it is attempting to satisfy or -- if it is
// §     initiating the request independently -- synthesizes a request using a
// §     stored response by copying the method, target URI, and request header
// §     fields identified by the Vary header field (Section 4.1).
// §
// §     When generating a conditional request for validation, a cache:
// §
// §     *  MUST send the relevant entity tags (using If-Match, If-None-Match,
// §        or If-Range) if the entity tags were provided in the stored
// §        response(s) being validated.
// §
// §     *  SHOULD send the Last-Modified value (using If-Modified-Since) if
// §        the request is not for a subrange, a single stored response is
// §        being validated, and that response contains a Last-Modified value.
// §
// §     In most cases, both validators are generated in cache validation
// §     requests, even when entity tags are clearly superior, to allow old
// §     intermediaries that do not understand entity tag preconditions to
// §     respond appropriately.
//
// Validators returns the precondition fields for revalidating a stored
// response. Values are copied verbatim. The result is empty if the stored
// response carries no validators.
func Validators(stored http.Header) http.Header {
	h := make(http.Header)
	if etag := stored.Get("ETag"); etag != "" {
		h.Set("If-None-Match", etag)
	}
	if lastModified := stored.Get("Last-Modified"); lastModified != "" {
		h.Set("If-Modified-Since", lastModified)
	}
	return h
}

func hasValidators(header http.Header) bool {
	return header.Get("ETag") != "" || header.Get("Last-Modified") != ""
}
