package go2web

import (
	"net/http"
	"strings"

	"github.com/ericselin/go2web/cache"
	cachekey "github.com/ericselin/go2web/pkg/cache-key"
	rawresponse "github.com/ericselin/go2web/pkg/raw-response"
	requestbuilder "github.com/ericselin/go2web/pkg/request-builder"
	urlresolver "github.com/ericselin/go2web/pkg/url-resolver"
	"github.com/ericselin/go2web/rfc9111"
	"github.com/ericselin/go2web/rfc9211"

	"github.com/rs/zerolog"
)

// exchange is a single hop of a request.
type exchange struct {
	method  string
	url     urlresolver.ParsedURL
	headers requestbuilder.Header
	body    []byte
	noCache bool
	log     zerolog.Logger
}

// fetch returns the response for one hop, from the cache if possible.
func (c *Client) fetch(ex *exchange) (rawresponse.Response, rfc9211.CacheStatus, error) {
	var cs rfc9211.CacheStatus

	if ex.method != http.MethodGet {
		cs.Forward(rfc9211.FwdMethod)
		res, err := c.roundTrip(ex, ex.headers)
		cs.FwdStatus = res.StatusCode()
		return res, cs, err
	}
	if c.cache == nil || ex.noCache {
		cs.Forward(rfc9211.FwdBypass)
		res, err := c.roundTrip(ex, ex.headers)
		cs.FwdStatus = res.StatusCode()
		return res, cs, err
	}

	accept := c.builder.Merge(ex.url.HostHeader(), ex.headers).Get("Accept")
	key := cachekey.Key(ex.url.String(), accept)
	ex.log = ex.log.With().Str("key", key).Logger()

	ex.log.Trace().Msg("Getting cached entry")
	entry, ok, err := c.cache.Get(key)
	if err != nil {
		ex.log.Warn().Err(err).Msg("Could not read from cache, treating as miss")
		cs.Forward(rfc9211.FwdMiss)
		return c.fetchAndStore(ex, key, cs)
	}
	if !ok {
		ex.log.Trace().Msg("Cache miss")
		cs.Forward(rfc9211.FwdUriMiss)
		return c.fetchAndStore(ex, key, cs)
	}

	// entries hold decoded text, so they are not decoded again
	stored := rawresponse.Response(entry.Bytes)
	if stored.StatusCode() == 0 {
		ex.log.Warn().Int("bytes", len(entry.Bytes)).Msg("Cached entry has no status line, treating as miss")
		cs.Forward(rfc9211.FwdMiss)
		return c.fetchAndStore(ex, key, cs)
	}
	storedHeader := stored.Header()
	verdict := rfc9111.Freshness(c.cacheHeader(ex.url, storedHeader), entry.StoredAt, c.now(), c.defaultTTL)
	ex.log.Trace().Str("verdict", verdict.String()).Time("storedAt", entry.StoredAt).Msg("Evaluated cached entry")

	switch {
	case verdict == rfc9111.Fresh:
		cs.Hit()
		return stored, cs, nil
	case verdict == rfc9111.MustRevalidate, len(rfc9111.Validators(storedHeader)) > 0:
		cs.Forward(rfc9211.FwdStale)
		return c.revalidate(ex, key, stored, cs)
	default:
		cs.Forward(rfc9211.FwdStale)
		return c.fetchAndStore(ex, key, cs)
	}
}

// revalidate sends a conditional request for a stored response.
// If the origin cannot be reached or sends no usable reply, the stored
// response is returned.
func (c *Client) revalidate(ex *exchange, key string, stored rawresponse.Response, cs rfc9211.CacheStatus) (rawresponse.Response, rfc9211.CacheStatus, error) {
	headers := ex.headers.Clone()
	validators := rfc9111.Validators(stored.Header())
	for _, name := range []string{"If-None-Match", "If-Modified-Since"} {
		if value := validators.Get(name); value != "" {
			headers.Set(name, value)
		}
	}
	ex.log.Trace().Msg("Revalidating cached entry")
	res, err := c.roundTrip(ex, headers)
	if err != nil {
		ex.log.Warn().Err(err).Msg("Revalidation failed, using stale entry")
		cs.Detail = "stale-fallback"
		return stored, cs, nil
	}
	cs.FwdStatus = res.StatusCode()

	// §  4.3.4.  Freshening Stored Responses upon Validation
	if cs.FwdStatus == http.StatusNotModified {
		ex.log.Trace().Msg("Not modified, freshening cached entry")
		cs.Stored = c.store(ex, cache.CacheEntry{Key: key, Bytes: []byte(stored)})
		return stored, cs, nil
	}
	cs.Stored = c.storeIfAllowed(ex, key, res)
	return res, cs, nil
}

func (c *Client) fetchAndStore(ex *exchange, key string, cs rfc9211.CacheStatus) (rawresponse.Response, rfc9211.CacheStatus, error) {
	res, err := c.roundTrip(ex, ex.headers)
	if err != nil {
		return res, cs, err
	}
	cs.FwdStatus = res.StatusCode()
	cs.Stored = c.storeIfAllowed(ex, key, res)
	return res, cs, nil
}

func (c *Client) storeIfAllowed(ex *exchange, key string, res rawresponse.Response) bool {
	if rfc9111.MustNotStore(res.StatusCode(), c.cacheHeader(ex.url, res.Header())) {
		ex.log.Trace().Int("status", res.StatusCode()).Msg("Response not storable")
		return false
	}
	return c.store(ex, cache.CacheEntry{Key: key, Bytes: []byte(res)})
}

// store writes the entry. Failures are logged, never returned.
func (c *Client) store(ex *exchange, entry cache.CacheEntry) bool {
	entry.StoredAt = c.now()
	if err := c.cache.Put(entry); err != nil {
		ex.log.Error().Err(err).Msg("Could not write cache entry")
		return false
	}
	ex.log.Trace().Int("bytes", len(entry.Bytes)).Msg("Stored response")
	return true
}

// cacheHeader returns the header that cache decisions are based on,
// i.e. the response header with the configured rules applied.
func (c *Client) cacheHeader(u urlresolver.ParsedURL, header http.Header) http.Header {
	path, _, _ := strings.Cut(u.Path, "?")
	return c.rules.Apply(u.Host, path, header)
}
