package rfc9111

import "net/http"

// §  3.  Storing Responses in Caches
// §
// §     A cache MUST NOT store a response to a request unless:
// §
// §     *  the request method is understood by the cache;
// §
// §     *  the response status code is final (see Section 15 of [HTTP]);
// §
// §     *  the no-store cache directive is not present in the response (see
// §        Section 5.2.2.5);
// §
// §     [...]
//
// MustNotStore is stricter than the RFC: only complete 200 responses are
// stored, and no-cache and private responses are skipped as well.
// The request method is checked by the caller (only GET is cached).
func MustNotStore(statusCode int, header http.Header) bool {
	if !responseStatusCodeIsUnderstood(statusCode) {
		return true
	}
	cc := ParseCacheControl(header.Values("Cache-Control"))
	return cc.NoStore() || cc.Private() || cc.NoCache()
}

func responseStatusCodeIsUnderstood(statusCode int) bool {
	switch statusCode {
	case http.StatusOK:
		return true
	}
	return false
}
