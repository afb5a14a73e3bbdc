// Package annotate derives body part, laterality and severity from the
// free-text notes of a single test instance. Everything here is pure and
// safe to call from multiple goroutines.
package annotate

import (
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/tables"
	"golang.org/x/text/unicode/norm"
)

// BodyPart is a dermatome category label.
type BodyPart string

const (
	Arm             BodyPart = "arm"
	ForearmAndElbow BodyPart = "forearm_and_elbow"
	Leg             BodyPart = "leg"
	Head            BodyPart = "head"
	Hand            BodyPart = "hand"
	FootOrAnkle     BodyPart = "foot_or_ankle"
	Fingers         BodyPart = "fingers"
	Toe             BodyPart = "toe"
	Tongue          BodyPart = "tongue"
	Face            BodyPart = "face"
	ChestEntireBody BodyPart = "chest_entire_body"
	Back            BodyPart = "back"
	Shoulder        BodyPart = "shoulder"
)

type category struct {
	name  BodyPart
	lower []string // matched against lower-cased notes
	exact []string // matched as written
}

// BodyPartMatcher finds dermatome categories in notes.
type BodyPartMatcher struct {
	cats []category
}

// NewBodyPartMatcher builds a matcher from declared keyword rules. Category
// order in the result follows rule order.
func NewBodyPartMatcher(rules []tables.BodyPartRule) *BodyPartMatcher {
	m := &BodyPartMatcher{cats: make([]category, 0, len(rules))}
	for _, r := range rules {
		c := category{name: BodyPart(r.Name)}
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				c.lower = append(c.lower, kw)
			}
		}
		for _, kw := range r.Exact {
			if kw != "" {
				c.exact = append(c.exact, kw)
			}
		}
		m.cats = append(m.cats, c)
	}
	return m
}

// Categories lists the declared categories in order.
func (m *BodyPartMatcher) Categories() []BodyPart {
	out := make([]BodyPart, len(m.cats))
	for i, c := range m.cats {
		out[i] = c.name
	}
	return out
}

// Match returns every category with at least one keyword in notes. Nil
// notes yield nil; notes without a hit yield an empty, non-nil slice.
func (m *BodyPartMatcher) Match(notes *string) []BodyPart {
	if notes == nil {
		return nil
	}
	text := fold(*notes)
	lower := strings.ToLower(text)
	out := []BodyPart{}
	for _, c := range m.cats {
		if containsAny(lower, c.lower) || containsAny(text, c.exact) {
			out = append(out, c.name)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// fold applies NFKC so that non-breaking spaces and full-width letters
// pasted from other systems compare like their plain forms.
func fold(s string) string {
	return norm.NFKC.String(s)
}

// Intersects reports whether parts contains any member of group.
func Intersects(parts []BodyPart, group []string) bool {
	for _, p := range parts {
		for _, g := range group {
			if string(p) == g {
				return true
			}
		}
	}
	return false
}

// Join renders a body-part set as a stable label, e.g. "face+hand".
func Join(parts []BodyPart) string {
	ss := make([]string, len(parts))
	for i, p := range parts {
		ss[i] = string(p)
	}
	return strings.Join(ss, "+")
}
