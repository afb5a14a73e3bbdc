package settings

import (
	"regexp"
	"strings"
)

// StimulationType is the polarity mode of a configuration.
type StimulationType string

const (
	Unipolar StimulationType = "unipolar"
	Bipolar  StimulationType = "bipolar"
)

// Parsed is the structural reading of a canonical settings string.
type Parsed struct {
	Canonical   string
	Working     string // canonical with the case anode removed and signs tidied
	ContactLead string
	Type        StimulationType
	CommonAnode bool
}

var (
	commonAnodeRe = regexp.MustCompile(`(?:^|/)c\++(?:/|$)`)
	doublePlusRe  = regexp.MustCompile(`\+{2,}`)
)

// separatorIndex returns the index of the first '/' at or after from that
// separates two contacts. A slash between two digits ("2/3/4") groups
// contacts of one ring and is not a separator.
func separatorIndex(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] != '/' {
			continue
		}
		if i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1]) {
			continue
		}
		return i
	}
	return -1
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Parse derives contact lead and polarity from a canonical settings string.
func Parse(canonical string) Parsed {
	p := Parsed{Canonical: canonical}
	hasSep := separatorIndex(canonical, 0) >= 0
	p.CommonAnode = hasSep && commonAnodeRe.MatchString(canonical)

	switch {
	case hasSep && p.CommonAnode:
		p.Type = Unipolar
	case hasSep:
		p.Type = Bipolar
	case strings.Contains(canonical, "-") && strings.Contains(canonical, "+"):
		p.Type = Bipolar
	default:
		p.Type = Unipolar
	}

	w := canonical
	if p.CommonAnode {
		w = strings.Trim(commonAnodeRe.ReplaceAllString(w, "/"), "/")
	}
	w = doublePlusRe.ReplaceAllString(w, "+")
	if !strings.Contains(w, "/") && strings.HasSuffix(w, "-") && !strings.HasSuffix(w, "--") {
		w = strings.TrimSuffix(w, "-")
	}
	p.Working = w

	if i := separatorIndex(w, 0); i >= 0 {
		p.ContactLead = w[:i]
	} else {
		p.ContactLead = w
	}
	return p
}
