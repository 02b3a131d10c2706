// Package go2web is a small HTTP/1.1 user agent with a private HTTP cache.
//
// Requests are written to raw TCP or TLS connections, responses are kept
// as decoded text and stored verbatim in a CacheProvider. Cache decisions
// follow the rfc9111 package.
package go2web

import (
	"strings"
	"time"

	"github.com/ericselin/go2web/cache"
	rawresponse "github.com/ericselin/go2web/pkg/raw-response"
	requestbuilder "github.com/ericselin/go2web/pkg/request-builder"
	responsetransformer "github.com/ericselin/go2web/pkg/response-transformer"
	"github.com/ericselin/go2web/pkg/transport"
	urlresolver "github.com/ericselin/go2web/pkg/url-resolver"
	"github.com/ericselin/go2web/rfc9111"
	"github.com/ericselin/go2web/rfc9211"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxRedirects is the number of redirects followed per request.
const DefaultMaxRedirects = 5

type Config struct {
	// Storage for cache entries. Caching is disabled if nil.
	Cache cache.CacheProvider
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
	// Dialer for origin connections.
	Dialer transport.Dialer
	// User-Agent and default Accept values. Defaults are used if empty.
	UserAgent string
	Accept    string
	// Number of redirects to follow. DefaultMaxRedirects if zero,
	// no redirects are followed if negative.
	MaxRedirects int
	// Freshness lifetime of responses without explicit freshness information
	// or validators. rfc9111.DefaultTTL if zero.
	DefaultTTL time.Duration
	// Rules for rewriting Cache-Control before cache decisions.
	Rules responsetransformer.Rules
	// Clock, time.Now if nil.
	Now func() time.Time
}

type Client struct {
	cache        cache.CacheProvider
	log          zerolog.Logger
	dialer       transport.Dialer
	builder      requestbuilder.Builder
	maxRedirects int
	defaultTTL   time.Duration
	rules        responsetransformer.Rules
	now          func() time.Time
}

// New creates a client from the given config.
func New(config Config) *Client {
	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}
	builder := requestbuilder.New()
	if config.UserAgent != "" {
		builder.UserAgent = config.UserAgent
	}
	if config.Accept != "" {
		builder.Accept = config.Accept
	}
	maxRedirects := config.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = DefaultMaxRedirects
	} else if maxRedirects < 0 {
		maxRedirects = 0
	}
	defaultTTL := config.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = rfc9111.DefaultTTL
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		cache:        config.Cache,
		log:          logger,
		dialer:       config.Dialer,
		builder:      builder,
		maxRedirects: maxRedirects,
		defaultTTL:   defaultTTL,
		rules:        config.Rules,
		now:          now,
	}
}

type Request struct {
	// GET if empty.
	Method string
	// Absolute URL. https is assumed if the scheme is missing.
	URL    string
	Header requestbuilder.Header
	Body   []byte
	// NoCache bypasses the cache for this request: nothing is read or stored.
	NoCache bool
}

type Result struct {
	// Response of the last hop.
	Response rawresponse.Response
	// URL of the last hop.
	URL urlresolver.ParsedURL
	// Number of redirects followed.
	Hops int
	// How the cache handled the last hop.
	CacheStatus rfc9211.CacheStatus
}

// Get is shorthand for a GET request with default headers.
func (c *Client) Get(url string) (Result, error) {
	return c.Do(Request{URL: url})
}

// Do performs the request, following redirects.
// Error statuses are not errors: the response is returned as is.
// When the redirect budget is exhausted, the last redirect response is
// returned.
func (c *Client) Do(req Request) (Result, error) {
	u, err := urlresolver.Resolve(req.URL)
	if err != nil {
		return Result{}, err
	}
	logger := c.log.With().Str("trace", uuid.NewString()).Logger()

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	headers := req.Header.Clone()
	body := req.Body

	for hops := 0; ; hops++ {
		ex := exchange{
			method:  method,
			url:     u,
			headers: headers,
			body:    body,
			noCache: req.NoCache,
			log:     logger.With().Str("url", u.String()).Logger(),
		}
		res, cacheStatus, err := c.fetch(&ex)
		result := Result{Response: res, URL: u, Hops: hops, CacheStatus: cacheStatus}
		if err != nil {
			return result, err
		}
		code := res.StatusCode()
		ex.log.Debug().
			Int("status", code).
			Str("cache", cacheStatus.String()).
			Msgf("%s %s", method, u.Path)
		if code >= 400 {
			ex.log.Warn().Int("status", code).Msg("Origin returned an error status")
		}

		if !isRedirect(code) {
			return result, nil
		}
		location := res.Get("Location")
		if location == "" {
			ex.log.Warn().Int("status", code).Msg("Redirect without Location")
			return result, nil
		}
		if hops >= c.maxRedirects {
			ex.log.Warn().Int("hops", hops).Msg("Redirect limit reached")
			return result, nil
		}
		next, err := u.ResolveReference(location)
		if err != nil {
			ex.log.Warn().Err(err).Str("location", location).Msg("Could not resolve redirect")
			return result, nil
		}
		if redirectToGet(code, method) {
			method = "GET"
			body = nil
			headers.Del("Content-Length")
			headers.Del("Content-Type")
		}
		ex.log.Trace().Str("location", next.String()).Msg("Following redirect")
		u = next
	}
}

func isRedirect(code int) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// redirectToGet reports whether following a redirect with the given status
// changes the method to GET.
func redirectToGet(code int, method string) bool {
	switch code {
	case 303:
		return method != "HEAD"
	case 301, 302:
		return method != "GET" && method != "HEAD"
	}
	return false
}
