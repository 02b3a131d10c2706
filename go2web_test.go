package go2web

import (
	"bufio"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ericselin/go2web/cache"
	requestbuilder "github.com/ericselin/go2web/pkg/request-builder"
	"github.com/ericselin/go2web/pkg/transport"
	responsetransformer "github.com/ericselin/go2web/pkg/response-transformer"
	"github.com/ericselin/go2web/rfc9211"

	"github.com/go-chi/chi/v5"
)

func newOrigin(t *testing.T, r http.Handler) *httptest.Server {
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetReturnsResponse(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)

	res, err := New(Config{}).Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if body := res.Response.Body(); body != "Hello world" {
		t.Fatalf("Body is %s", body)
	}
	if res.CacheStatus.FwdReason != rfc9211.FwdBypass {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestSecondRequestFromCacheWithoutNetwork(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)
	provider, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := New(Config{Cache: provider})

	first, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !first.CacheStatus.Stored {
		t.Fatalf("Response not stored: %s", first.CacheStatus)
	}
	srv.Close()
	second, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Cached request failed: %v", err)
	}

	if handleCount != 1 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if second.CacheStatus.Status != rfc9211.StatusHit {
		t.Fatalf("Cache status is %s", second.CacheStatus)
	}
	if second.Response != first.Response {
		t.Fatalf("Cached response differs:\n%s\n---\n%s", first.Response, second.Response)
	}
}

func TestMaxAgeExpiry(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "max-age=60")
		fmt.Fprintf(w, "Called %d times", handleCount)
	})
	srv := newOrigin(t, r)
	start := time.Now()
	now := start
	c := New(Config{Cache: cache.NewMemCache(), Now: func() time.Time { return now }})

	c.Get(srv.URL)
	now = start.Add(59 * time.Second)
	if res, _ := c.Get(srv.URL); res.Response.Body() != "Called 1 times" {
		t.Fatalf("Body after 59s is %s", res.Response.Body())
	}
	now = start.Add(61 * time.Second)
	res, _ := c.Get(srv.URL)
	if res.Response.Body() != "Called 2 times" {
		t.Fatalf("Body after 61s is %s", res.Response.Body())
	}
	if res.CacheStatus.FwdReason != rfc9211.FwdStale || !res.CacheStatus.Stored {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestNotModifiedReturnsStoredBytes(t *testing.T) {
	var handleCount int
	var conditional string
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		conditional = r.Header.Get("If-None-Match")
		if conditional == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("version one"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	first, _ := c.Get(srv.URL)
	second, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if handleCount != 2 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if conditional != `"v1"` {
		t.Fatalf("If-None-Match is %s", conditional)
	}
	if second.Response != first.Response {
		t.Fatalf("Revalidated response differs:\n%s\n---\n%s", first.Response, second.Response)
	}
	if second.CacheStatus.FwdStatus != http.StatusNotModified {
		t.Fatalf("Cache status is %s", second.CacheStatus)
	}
}

func TestStaleEntryServedWhenOriginDown(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	c.Get(srv.URL)
	srv.Close()
	res, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Stale fallback failed: %v", err)
	}
	if res.Response.Body() != "Hello world" {
		t.Fatalf("Body is %s", res.Response.Body())
	}
	if res.CacheStatus.Detail != "stale-fallback" {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestStaleEntryWithoutValidatorsIsNotServed(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)
	start := time.Now()
	now := start
	c := New(Config{Cache: cache.NewMemCache(), Now: func() time.Time { return now }})

	c.Get(srv.URL)
	srv.Close()
	now = start.Add(2 * time.Minute)
	if _, err := c.Get(srv.URL); !errors.Is(err, ErrConnection) {
		t.Fatalf("Error is %v", err)
	}
}

func redirectRouter(count *int) http.Handler {
	r := chi.NewRouter()
	r.Get("/r/{n}", func(w http.ResponseWriter, r *http.Request) {
		*count++
		n, _ := strconv.Atoi(chi.URLParam(r, "n"))
		http.Redirect(w, r, fmt.Sprintf("/r/%d", n+1), http.StatusFound)
	})
	r.Get("/moved", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "final?from=moved")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	r.Get("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("final " + r.URL.Query().Get("from")))
	})
	return r
}

func TestRedirectLimit(t *testing.T) {
	var count int
	srv := newOrigin(t, redirectRouter(&count))

	res, err := New(Config{Cache: cache.NewMemCache()}).Get(srv.URL + "/r/0")
	if err != nil {
		t.Fatal(err)
	}
	if count != 6 {
		t.Fatalf("Made %d requests", count)
	}
	if res.Hops != 5 {
		t.Fatalf("Followed %d redirects", res.Hops)
	}
	if code := res.Response.StatusCode(); code != http.StatusFound {
		t.Fatalf("Status is %d", code)
	}
	if res.URL.Path != "/r/5" {
		t.Fatalf("Last URL is %s", res.URL)
	}
}

func TestRelativeRedirect(t *testing.T) {
	var count int
	srv := newOrigin(t, redirectRouter(&count))

	res, err := New(Config{}).Get(srv.URL + "/moved")
	if err != nil {
		t.Fatal(err)
	}
	if res.Response.Body() != "final moved" {
		t.Fatalf("Body is %s", res.Response.Body())
	}
	if res.Hops != 1 || res.URL.Path != "/final?from=moved" {
		t.Fatalf("Ended at %s after %d hops", res.URL, res.Hops)
	}
}

func TestNoRedirects(t *testing.T) {
	var count int
	srv := newOrigin(t, redirectRouter(&count))

	res, _ := New(Config{MaxRedirects: -1}).Get(srv.URL + "/r/0")
	if count != 1 || res.Hops != 0 {
		t.Fatalf("Made %d requests", count)
	}
}

func TestSeeOtherSwitchesToGet(t *testing.T) {
	var posted string
	var doneContentLength int64 = -1
	r := chi.NewRouter()
	r.Post("/form", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		posted = string(b)
		http.Redirect(w, r, "/done", http.StatusSeeOther)
	})
	r.Get("/done", func(w http.ResponseWriter, r *http.Request) {
		doneContentLength = r.ContentLength
		w.Write([]byte("done"))
	})
	srv := newOrigin(t, r)

	res, err := New(Config{Cache: cache.NewMemCache()}).Do(Request{
		Method: "POST",
		URL:    srv.URL + "/form",
		Header: requestbuilder.Header{{Name: "Content-Type", Value: "application/x-www-form-urlencoded"}},
		Body:   []byte("q=go"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if posted != "q=go" {
		t.Fatalf("Posted %s", posted)
	}
	if res.Response.Body() != "done" || doneContentLength != 0 {
		t.Fatalf("Body is %s, content length %d", res.Response.Body(), doneContentLength)
	}
}

func TestPostIsNotCached(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte("posted"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	c.Do(Request{Method: "POST", URL: srv.URL})
	res, _ := c.Do(Request{Method: "POST", URL: srv.URL})
	if handleCount != 2 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if res.CacheStatus.FwdReason != rfc9211.FwdMethod {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestNoStore(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte("secret"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	res, _ := c.Get(srv.URL)
	c.Get(srv.URL)
	if handleCount != 2 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if res.CacheStatus.Stored {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestErrorStatusBodyReturned(t *testing.T) {
	r := chi.NewRouter()
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	res, err := c.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	if res.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("Status is %d", res.Response.StatusCode())
	}
	if !strings.Contains(res.Response.Body(), "404 page not found") {
		t.Fatalf("Body is %s", res.Response.Body())
	}
	if res.CacheStatus.Stored {
		t.Fatal("404 stored")
	}
}

func TestNoCacheBypass(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	c.Get(srv.URL)
	res, _ := c.Do(Request{URL: srv.URL, NoCache: true})
	if handleCount != 2 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if res.CacheStatus.FwdReason != rfc9211.FwdBypass {
		t.Fatalf("Cache status is %s", res.CacheStatus)
	}
}

func TestAcceptIsPartOfKey(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte(r.Header.Get("Accept")))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	c.Get(srv.URL)
	res, _ := c.Do(Request{URL: srv.URL, Header: requestbuilder.Header{{Name: "Accept", Value: "application/json"}}})
	if handleCount != 2 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if res.Response.Body() != "application/json" {
		t.Fatalf("Body is %s", res.Response.Body())
	}
}

func TestRulesDefaultCacheControl(t *testing.T) {
	var handleCount int
	r := chi.NewRouter()
	r.Get("/static/app.css", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("ETag", `"css"`)
		w.Write([]byte("body{}"))
	})
	srv := newOrigin(t, r)
	c := New(Config{
		Cache: cache.NewMemCache(),
		Rules: responsetransformer.Rules{{Prefix: "/static/", Default: "max-age=600"}},
	})

	c.Get(srv.URL + "/static/app.css")
	res, _ := c.Get(srv.URL + "/static/app.css")
	if handleCount != 1 {
		t.Fatalf("Handler called %d times", handleCount)
	}
	if res.Response.Get("Cache-Control") != "" {
		t.Fatal("Rule modified the returned response")
	}
}

func TestTLS(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secure"))
	})
	srv := httptest.NewTLSServer(r)
	defer srv.Close()
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	res, err := New(Config{Dialer: transport.Dialer{RootCAs: pool}}).Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Response.Body() != "secure" {
		t.Fatalf("Body is %s", res.Response.Body())
	}

	if _, err := New(Config{}).Get(srv.URL); !errors.Is(err, ErrConnection) {
		t.Fatalf("Untrusted certificate accepted: %v", err)
	}
}

func TestInvalidURL(t *testing.T) {
	if _, err := New(Config{}).Get("ftp://example.com"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("Error is %v", err)
	}
}

func TestLastModifiedRevalidation(t *testing.T) {
	const lastModified = "Wed, 21 Oct 2015 07:28:00 GMT"
	var conditional string
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		conditional = r.Header.Get("If-Modified-Since")
		if conditional == lastModified {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Last-Modified", lastModified)
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache()})

	first, _ := c.Get(srv.URL)
	second, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if conditional != lastModified {
		t.Fatalf("If-Modified-Since is %q", conditional)
	}
	if second.Response != first.Response {
		t.Fatalf("Revalidated response differs:\n%s\n---\n%s", first.Response, second.Response)
	}
	if second.CacheStatus.FwdStatus != http.StatusNotModified || !second.CacheStatus.Stored {
		t.Fatalf("Cache status is %s", second.CacheStatus)
	}
}

func TestExpiresInThePastRefetches(t *testing.T) {
	var handleCount int
	start := time.Now()
	now := start
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Header().Set("Expires", start.Add(30*time.Second).UTC().Format(http.TimeFormat))
		fmt.Fprintf(w, "Called %d times", handleCount)
	})
	srv := newOrigin(t, r)
	c := New(Config{Cache: cache.NewMemCache(), Now: func() time.Time { return now }})

	c.Get(srv.URL)
	now = start.Add(10 * time.Second)
	if res, _ := c.Get(srv.URL); res.CacheStatus.Status != rfc9211.StatusHit {
		t.Fatalf("Cache status before Expires is %s", res.CacheStatus)
	}
	now = start.Add(40 * time.Second)
	res, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Response.Body() != "Called 2 times" || res.CacheStatus.FwdReason != rfc9211.FwdStale {
		t.Fatalf("Body is %s, cache status %s", res.Response.Body(), res.CacheStatus)
	}
}

// newRawOrigin serves replies[i] to the i-th connection after reading its
// request head. Later connections are closed without a reply.
func newRawOrigin(t *testing.T, replies ...string) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for i := 0; ; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			br := bufio.NewReader(conn)
			for {
				line, err := br.ReadString('\n')
				if err != nil || line == "\r\n" {
					break
				}
			}
			if i < len(replies) {
				io.WriteString(conn, replies[i])
			}
			conn.Close()
		}
	}()
	return "http://" + ln.Addr().String()
}

func TestEmptyReplyDuringRevalidationServesStale(t *testing.T) {
	origin := newRawOrigin(t, "HTTP/1.1 200 OK\r\nETag: \"v1\"\r\nContent-Length: 5\r\n\r\nhello")
	c := New(Config{Cache: cache.NewMemCache()})

	first, err := c.Get(origin)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get(origin)
	if err != nil {
		t.Fatalf("Stale fallback failed: %v", err)
	}
	if second.Response != first.Response || second.Response.Body() != "hello" {
		t.Fatalf("Response is %q", second.Response)
	}
	if second.CacheStatus.Detail != "stale-fallback" {
		t.Fatalf("Cache status is %s", second.CacheStatus)
	}
}

func TestEmptyReplyIsReceiveError(t *testing.T) {
	origin := newRawOrigin(t)

	if _, err := New(Config{Cache: cache.NewMemCache()}).Get(origin); !errors.Is(err, ErrReceive) {
		t.Fatalf("Error is %v", err)
	}
}

func TestNonHTTPReplyIsReceiveError(t *testing.T) {
	origin := newRawOrigin(t, "SSH-2.0-OpenSSH_9.6\r\n")

	if _, err := New(Config{}).Get(origin); !errors.Is(err, ErrReceive) {
		t.Fatalf("Error is %v", err)
	}
}

type unreadableCache struct {
	cache.MemCache
}

func (unreadableCache) Get(string) (cache.CacheEntry, bool, error) {
	return cache.CacheEntry{}, false, errors.New("disk on fire")
}

func TestUnreadableCacheIsMiss(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello world"))
	})
	srv := newOrigin(t, r)

	res, err := New(Config{Cache: unreadableCache{cache.NewMemCache()}}).Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Response.Body() != "Hello world" || res.CacheStatus.FwdReason != rfc9211.FwdMiss {
		t.Fatalf("Body is %s, cache status %s", res.Response.Body(), res.CacheStatus)
	}
}
