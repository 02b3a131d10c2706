// Package search builds search engine queries and parses result links out of
// the returned markup.
package search

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultEngine is the DuckDuckGo HTML endpoint, which works without scripts.
const DefaultEngine = "https://html.duckduckgo.com/html/"

// DefaultLimit is the number of results kept from a result page.
const DefaultLimit = 10

type Result struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// QueryURL returns the URL searching engine for term.
func QueryURL(engine, term string) string {
	if engine == "" {
		engine = DefaultEngine
	}
	sep := "?"
	if strings.Contains(engine, "?") {
		sep = "&"
	}
	return engine + sep + "q=" + url.QueryEscape(strings.TrimSpace(term))
}

// Results returns up to limit result links from a DuckDuckGo result page,
// in page order. Ads and duplicate URLs are skipped. A limit of zero or less
// means no limit.
func Results(markup string, limit int) []Result {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	var results []Result
	seen := make(map[string]bool)
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			if target, ok := resultURL(attr(n, "href")); ok && !seen[target] {
				seen[target] = true
				results = append(results, Result{Title: text(n), URL: target})
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(doc)
	return results
}

// resultURL unwraps DuckDuckGo redirect links. The target is carried in
// the uddg query parameter.
func resultURL(href string) (string, bool) {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil || href == "" {
		return "", false
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if u.Path == "/y.js" {
			// ad
			return "", false
		}
		if target := u.Query().Get("uddg"); target != "" {
			return target, true
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
