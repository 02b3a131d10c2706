package rfc9111

import (
	"strings"
	"time"
)

// §  5.2.  Cache-Control
// §
// §     The "Cache-Control" header field is used to list directives for
// §     caches along the request/response chain.  Cache directives are
// §     unidirectional, in that the presence of a directive in a request does
// §     not imply that the same directive is present or copied in the
// §     response.
// §
// §     Cache directives are identified by a token, to be compared case-
// §     insensitively, and have an optional argument that can use both token
// §     and quoted-string syntax.  For the directives defined below that
// §     define arguments, recipients ought to accept both forms, even if a
// §     specific form is required for generation.
// §
// §       Cache-Control   = #cache-directive
// §
// §       cache-directive = token [ "=" ( token / quoted-string ) ]
// §
// §     For the cache directives defined below, no argument is defined (nor
// §     allowed) unless stated otherwise.

// CacheControl implements parsing of the "Cache-Control" header (/field).
type CacheControl struct {
	directives map[string]string
}

// Get returns the value (/argument) of the specified directive,
// along with a boolean indicating whether this directive is present
func (c CacheControl) Get(directive string) (string, bool) {
	val, ok := c.directives[directive]
	return val, ok
}

// HasDirective returns whether the specified directive is present
func (c CacheControl) HasDirective(directive string) bool {
	_, ok := c.Get(directive)
	return ok
}

// ParseCacheControl takes Cache-Control headers as a slice of strings
// and returns an instance of `CacheControl`.
func ParseCacheControl(headers []string) CacheControl {
	m := make(map[string]string)
	for _, header := range headers {
		// "#" means comma-separated list
		for _, directive := range strings.Split(header, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			parts := strings.SplitN(directive, "=", 2)
			name := getCacheControlDirectiveName(parts[0])
			var arg string
			if len(parts) > 1 {
				arg = getCacheControlDirectiveArgument(parts[1])
			}
			// §  When there is more than one value present for a given directive
			// §  (e.g., two Expires header field lines or multiple Cache-Control:
			// §  max-age directives), either the first occurrence should be used
			// §  or the response should be considered stale.
			if _, seen := m[name]; !seen {
				m[name] = arg
			}
		}
	}
	return CacheControl{m}
}

// getCacheControlDirectiveName returns a normalized name for the given directive.
func getCacheControlDirectiveName(token string) string {
	// §  [...] to be compared case-insensitively [...]
	return strings.ToLower(strings.TrimSpace(token))
}

// getCacheControlDirectiveArgument returns the directive argument in token form,
// i.e. it converts the argument from "quoted-string" to "token" form if needed.
func getCacheControlDirectiveArgument(arg string) string {
	// §  [...] argument that can use both token and quoted-string syntax. [...]
	return strings.Trim(strings.TrimSpace(arg), "\"")
}

// §  5.2.2.1.  max-age
// §
// §     Argument syntax:
// §
// §        delta-seconds (see Section 1.2.2)
// §
// §     The max-age response directive indicates that the response is to be
// §     considered stale after its age is greater than the specified number
// §     of seconds.

// MaxAge returns "max-age" as a duration, along with a boolean indicating
// whether the "max-age" directive was present.
// A present but malformed argument yields a zero duration, i.e. stale.
func (c CacheControl) MaxAge() (time.Duration, bool) {
	return c.getDeltaSeconds("max-age")
}

// getDeltaSeconds returns the "delta-seconds" as `time.Duration`,
// as well as a boolean indicating whether the directive was set.
//
// Examples:
// directive      -> 0,  true
// directive=0    -> 0,  true
// directive=60   -> 60, true
// directive=abc  -> 0,  true
// (absent)       -> 0,  false
func (c CacheControl) getDeltaSeconds(directive string) (time.Duration, bool) {
	secondsStr, ok := c.Get(directive)
	if !ok {
		return 0, false
	}
	// §  Caches are encouraged to consider responses that have invalid
	// §  freshness information (e.g., a max-age directive with non-integer
	// §  content) to be stale.
	d, err := deltaSeconds(secondsStr)
	if err != nil {
		return 0, true
	}
	return d, true
}

// §  5.2.2.5.  no-store
// §
// §     The no-store response directive indicates that a cache MUST NOT store
// §     any part of either the immediate request or the response, even if the
// §     cache is private.
func (c CacheControl) NoStore() bool {
	return c.HasDirective("no-store")
}

// §  5.2.2.4.  no-cache
// §
// §     The no-cache response directive, in its unqualified form (without an
// §     argument), indicates that the response MUST NOT be used to satisfy
// §     any other request without forwarding it for validation and receiving
// §     a successful response; see Section 4.3.
func (c CacheControl) NoCache() bool {
	return c.HasDirective("no-cache")
}

// §  5.2.2.7.  private
// §
// §     The unqualified private response directive indicates that a shared
// §     cache MUST NOT store the response (i.e., the response is intended for
// §     a single user).
//
// NOTE private responses are not stored here either.
func (c CacheControl) Private() bool {
	return c.HasDirective("private")
}
