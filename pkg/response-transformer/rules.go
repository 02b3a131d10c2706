// Package responsetransformer rewrites the caching headers of responses
// according to configured rules before cache decisions are made.
package responsetransformer

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type Rules []Rule

// Rule matches responses by host and path. Empty match fields match anything.
type Rule struct {
	Host     string `yaml:"host"`
	Prefix   string `yaml:"prefix"`
	Path     string `yaml:"path"`
	Default  string `yaml:"default"`
	Override string `yaml:"override"`
}

// Apply returns the header to base cache decisions on for a response to
// host and path. The given header is never modified; if a rule applies, a
// copy with the rewritten Cache-Control field is returned.
func (r Rules) Apply(host, path string, header http.Header) http.Header {
	rule := r.find(host, path)
	if rule == nil {
		return header
	}
	if rule.Override != "" {
		log.Trace().Str("host", host).Str("path", path).Msg("Overriding Cache-Control header")
		header = header.Clone()
		header.Set("Cache-Control", rule.Override)
	} else if rule.Default != "" && header.Get("Cache-Control") == "" {
		log.Trace().Str("host", host).Str("path", path).Msg("Applying default Cache-Control header")
		header = header.Clone()
		header.Set("Cache-Control", rule.Default)
	}
	return header
}

func (r Rules) find(host, path string) *Rule {
	for i, rule := range r {
		if rule.Host != "" && !strings.EqualFold(rule.Host, host) {
			continue
		}
		if rule.Path != "" && rule.Path != path {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		log.Trace().Msgf("Matched rule %+v", rule)
		return &r[i]
	}
	return nil
}
