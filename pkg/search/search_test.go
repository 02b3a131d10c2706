package search

import "testing"

const resultPage = `<html><body>
<div class="result results_links">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=abc">The <b>Go</b> Programming Language</a>
  </h2>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">snippet</a>
</div>
<div class="result result--ad">
  <a class="result__a" href="https://duckduckgo.com/y.js?ad_provider=x">Ad</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/net/http">http package</a>
</div>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">Duplicate</a>
</div>
<div class="result">
  <a class="result__a" href="javascript:void(0)">Script</a>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/doc/">Documentation</a>
</div>
</body></html>`

func TestResults(t *testing.T) {
	results := Results(resultPage, 10)
	want := []Result{
		{"The Go Programming Language", "https://go.dev/"},
		{"http package", "https://pkg.go.dev/net/http"},
		{"Documentation", "https://go.dev/doc/"},
	}
	if len(results) != len(want) {
		t.Fatalf("Results are %+v", results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("Result %d is %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestResultsLimit(t *testing.T) {
	if results := Results(resultPage, 2); len(results) != 2 {
		t.Fatalf("Results are %+v", results)
	}
}

func TestQueryURL(t *testing.T) {
	if u := QueryURL("", " go http cache "); u != "https://html.duckduckgo.com/html/?q=go+http+cache" {
		t.Fatalf("URL is %s", u)
	}
	if u := QueryURL("https://example.com/search?kl=us-en", "a&b"); u != "https://example.com/search?kl=us-en&q=a%26b" {
		t.Fatalf("URL is %s", u)
	}
}
