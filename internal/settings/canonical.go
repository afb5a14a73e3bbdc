// Package settings normalizes the stimulation "Full settings" code: it
// applies reviewed corrections, parses contact lead and polarity, and maps
// the result onto device-independent contact buckets.
package settings

import (
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// Canonicalizer applies the correction table in a single pass.
type Canonicalizer struct {
	rules []tables.Correction
}

// NewCanonicalizer wraps validated corrections (see tables.Parse).
func NewCanonicalizer(rules []tables.Correction) *Canonicalizer {
	return &Canonicalizer{rules: rules}
}

// Canonicalize trims and lower-cases raw, then rewrites it with the first
// matching correction. It returns ok=false for blank values and values a
// correction excludes. Values no rule matches are returned unchanged.
func (c *Canonicalizer) Canonicalize(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for i := range c.rules {
		r := &c.rules[i]
		switch r.Match {
		case tables.MatchExact:
			if s != r.Pattern {
				continue
			}
			if r.Replace == nil {
				return "", false
			}
			return *r.Replace, true
		case tables.MatchRegex:
			re := r.Regexp()
			if re == nil || !re.MatchString(s) {
				continue
			}
			if r.Replace == nil {
				return "", false
			}
			return re.ReplaceAllString(s, *r.Replace), true
		}
	}
	return s, true
}
