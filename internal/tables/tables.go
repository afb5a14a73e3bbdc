// Package tables holds the declarative lookup data the normalization
// pipeline runs on: body-part keywords, settings corrections, the
// cross-device contact buckets and the study visit order.
package tables

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Match kinds for a settings correction.
const (
	MatchExact = "exact"
	MatchRegex = "regex"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid tables")

// ValidationError reports an inconsistent tables document.
type ValidationError struct {
	Source string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tables %s: %s", e.Source, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// BodyPartRule lists the keywords that mark one dermatome category.
type BodyPartRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Exact    []string `yaml:"exact"`
}

// Correction rewrites one malformed settings value. A nil Replace excludes
// the value instead of guessing.
type Correction struct {
	Match   string  `yaml:"match"`
	Pattern string  `yaml:"pattern"`
	Replace *string `yaml:"replace"`

	re *regexp.Regexp
}

// Regexp returns the compiled pattern of a regex correction, nil otherwise.
func (c *Correction) Regexp() *regexp.Regexp { return c.re }

// Tables is the full lookup document.
type Tables struct {
	BodyParts   []BodyPartRule               `yaml:"body_parts"`
	Groups      map[string][]string          `yaml:"groups"`
	Corrections []Correction                 `yaml:"corrections"`
	Buckets     []string                     `yaml:"buckets"`
	Devices     map[string]map[string]string `yaml:"devices"`
	Visits      []string                     `yaml:"visits"`
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Parse(defaultYAML, "default")
})

// Default returns the embedded tables. The result is shared; do not modify it.
func Default() *Tables {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("embedded tables: %v", err))
	}
	return t
}

// Load reads a tables file, or returns Default when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return Parse(b, path)
}

// Parse decodes and validates a tables document.
func Parse(b []byte, source string) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse tables %s: %w", source, err)
	}
	if err := t.validate(source); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) validate(source string) error {
	invalid := func(format string, args ...any) error {
		return &ValidationError{Source: source, Reason: fmt.Sprintf(format, args...)}
	}
	if len(t.BodyParts) == 0 {
		return invalid("no body_parts declared")
	}
	parts := make(map[string]bool, len(t.BodyParts))
	for _, bp := range t.BodyParts {
		if bp.Name == "" {
			return invalid("body part without a name")
		}
		if parts[bp.Name] {
			return invalid("duplicate body part %q", bp.Name)
		}
		if len(bp.Keywords)+len(bp.Exact) == 0 {
			return invalid("body part %q has no keywords", bp.Name)
		}
		parts[bp.Name] = true
	}
	for g, members := range t.Groups {
		for _, m := range members {
			if !parts[m] {
				return invalid("group %q references unknown body part %q", g, m)
			}
		}
	}
	for i := range t.Corrections {
		c := &t.Corrections[i]
		switch c.Match {
		case MatchExact:
		case MatchRegex:
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return invalid("correction %d: %v", i+1, err)
			}
			c.re = re
		default:
			return invalid("correction %d: unknown match %q (use exact|regex)", i+1, c.Match)
		}
	}
	buckets := make(map[string]bool, len(t.Buckets))
	for _, b := range t.Buckets {
		if buckets[b] {
			return invalid("duplicate bucket %q", b)
		}
		buckets[b] = true
	}
	for dev, m := range t.Devices {
		for contact, b := range m {
			if !buckets[b] {
				return invalid("device %s contact %q maps to unknown bucket %q", dev, contact, b)
			}
		}
	}
	return nil
}

// BucketIndex returns the chart position of a bucket, or -1.
func (t *Tables) BucketIndex(bucket string) int {
	for i, b := range t.Buckets {
		if b == bucket {
			return i
		}
	}
	return -1
}

// VisitIndex returns the study order of a visit label; unknown visits sort
// after every declared one.
func (t *Tables) VisitIndex(visit string) int {
	for i, v := range t.Visits {
		if v == visit {
			return i
		}
	}
	return len(t.Visits)
}
