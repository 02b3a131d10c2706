package responsetransformer

import (
	"net/http"
	"testing"
)

func TestDefault(t *testing.T) {
	rules := Rules{{Host: "example.com", Default: "max-age=600"}}
	h := rules.Apply("example.com", "/", http.Header{})
	if h.Get("Cache-Control") != "max-age=600" {
		t.Fatalf("Cache-Control is %s", h.Get("Cache-Control"))
	}
	h = rules.Apply("example.com", "/", http.Header{"Cache-Control": {"no-store"}})
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("Default overwrote Cache-Control: %s", h.Get("Cache-Control"))
	}
}

func TestOverrideDoesNotModifyInput(t *testing.T) {
	rules := Rules{{Prefix: "/static/", Override: "max-age=86400"}}
	in := http.Header{"Cache-Control": {"no-cache"}}
	h := rules.Apply("example.com", "/static/app.css", in)
	if h.Get("Cache-Control") != "max-age=86400" {
		t.Fatalf("Cache-Control is %s", h.Get("Cache-Control"))
	}
	if in.Get("Cache-Control") != "no-cache" {
		t.Fatal("Input header modified")
	}
}

func TestNoMatch(t *testing.T) {
	rules := Rules{
		{Host: "other.com", Override: "max-age=1"},
		{Path: "/exact", Override: "max-age=2"},
	}
	h := rules.Apply("example.com", "/exact/not", http.Header{})
	if h.Get("Cache-Control") != "" {
		t.Fatalf("Cache-Control is %s", h.Get("Cache-Control"))
	}
}

func TestFirstMatchWins(t *testing.T) {
	rules := Rules{
		{Host: "EXAMPLE.com", Override: "max-age=1"},
		{Override: "max-age=2"},
	}
	if h := rules.Apply("example.com", "/", http.Header{}); h.Get("Cache-Control") != "max-age=1" {
		t.Fatalf("Cache-Control is %s", h.Get("Cache-Control"))
	}
}
