package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ericselin/go2web"
	"github.com/ericselin/go2web/cache"
	"github.com/ericselin/go2web/pkg/extract"
	"github.com/ericselin/go2web/pkg/search"
	"github.com/ericselin/go2web/pkg/session"
	"github.com/ericselin/go2web/pkg/transport"

	"github.com/rs/zerolog/log"
)

type options struct {
	// bypass the cache for requests
	noCache bool
	// print raw responses
	raw bool
}

type app struct {
	config   Config
	options  options
	provider cache.CacheProvider
	client   *go2web.Client
	sessions session.Store
}

func newApp(config Config, opts options) (*app, error) {
	provider, err := cache.Open(config.Cache.Provider, config.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening %s cache in %s: %w", config.Cache.Provider, config.Cache.Dir, err)
	}
	maxRedirects := config.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = -1
	}
	client := go2web.New(go2web.Config{
		Cache:        provider,
		Dialer:       transport.Dialer{Timeout: config.Timeout},
		UserAgent:    config.UserAgent,
		Accept:       config.Accept,
		MaxRedirects: maxRedirects,
		DefaultTTL:   config.Cache.DefaultTTL,
		Rules:        config.Cache.Rules,
	})
	return &app{
		config:   config,
		options:  opts,
		provider: provider,
		client:   client,
		sessions: session.Store{Path: config.Session},
	}, nil
}

func (a *app) Close() {
	if err := a.provider.Close(); err != nil {
		log.Warn().Err(err).Msg("Could not close cache")
	}
}

func (a *app) clearCache() error {
	return a.provider.Clear()
}

func (a *app) fetch(url string) (go2web.Result, error) {
	res, err := a.client.Do(go2web.Request{URL: url, NoCache: a.options.noCache})
	if err != nil {
		return res, err
	}
	log.Info().
		Str("url", res.URL.String()).
		Int("status", res.Response.StatusCode()).
		Int("hops", res.Hops).
		Str("cache", res.CacheStatus.String()).
		Msg("Fetched")
	return res, nil
}

// get prints the response for url.
func (a *app) get(w io.Writer, url string) error {
	res, err := a.fetch(url)
	if err != nil {
		return err
	}
	if a.options.raw {
		_, err = io.WriteString(w, res.Response.String())
		return err
	}
	text := extract.Body(res.Response.Get("Content-Type"), res.Response.Body())
	_, err = fmt.Fprintln(w, strings.TrimRight(text, "\n"))
	return err
}

// search prints numbered results for term and saves them for open.
func (a *app) search(w io.Writer, term string) error {
	res, err := a.fetch(search.QueryURL(a.config.Search.Engine, term))
	if err != nil {
		return err
	}
	if code := res.Response.StatusCode(); code != 200 {
		return fmt.Errorf("search engine returned status %d", code)
	}
	results := search.Results(res.Response.Body(), a.config.Search.Limit)
	if len(results) == 0 {
		_, err := fmt.Fprintf(w, "No results for %q\n", term)
		return err
	}
	if err := a.sessions.Save(session.NewResultSet(term, results)); err != nil {
		log.Warn().Err(err).Str("path", a.sessions.Path).Msg("Could not save search results")
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, r.Title, r.URL); err != nil {
			return err
		}
	}
	return nil
}

// open prints result number n of the last search.
func (a *app) open(w io.Writer, n int) error {
	rs, err := a.sessions.Load()
	if err != nil {
		return err
	}
	r, err := rs.Result(n)
	if err != nil {
		return err
	}
	log.Debug().Str("term", rs.Term).Str("session", rs.ID.String()).Msgf("Opening result %d", n)
	return a.get(w, r.URL)
}
