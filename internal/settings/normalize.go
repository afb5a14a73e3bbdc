package settings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// Status is the final classification of a settings value.
type Status string

const (
	StatusUnipolar Status = "unipolar"
	StatusBipolar  Status = "bipolar"
	StatusUnmapped Status = "unmapped"
)

// Reasons a value lands in the review list.
const (
	ReasonExcluded = "excluded"
	ReasonNoDevice = "no device"
	ReasonNoBucket = "no bucket"
)

// Result is the full normalization of one settings value.
type Result struct {
	Raw       string
	Canonical *string
	Parsed    Parsed
	Combined  *string
	Status    Status
	Reason    string // set when Status is StatusUnmapped
}

// Normalizer runs canonicalization, parsing and bucketing.
type Normalizer struct {
	canon   *Canonicalizer
	devices map[string]map[string]string
}

// NewNormalizer builds a Normalizer from validated tables.
func NewNormalizer(t *tables.Tables) *Normalizer {
	return &Normalizer{canon: NewCanonicalizer(t.Corrections), devices: t.Devices}
}

// Canonicalize exposes the correction step on its own.
func (n *Normalizer) Canonicalize(raw string) (string, bool) {
	return n.canon.Canonicalize(raw)
}

// Bucket maps a parsed setting onto a combined bucket for device. Polarity
// signs on the contact lead are ignored for the lookup.
func (n *Normalizer) Bucket(p Parsed, device string) (string, bool) {
	if device == "" {
		return "", false
	}
	m, ok := n.devices[device]
	if !ok {
		return "", false
	}
	b, ok := m[contactKey(p.ContactLead)]
	return b, ok
}

func contactKey(lead string) string {
	return strings.Trim(lead, "+-")
}

// Normalize classifies raw for device ("" when the subject has no device).
// It never fails; anything it cannot place comes back StatusUnmapped.
func (n *Normalizer) Normalize(raw, device string) Result {
	res := Result{Raw: strings.ToLower(strings.TrimSpace(raw))}
	canonical, ok := n.canon.Canonicalize(raw)
	if !ok {
		res.Status = StatusUnmapped
		res.Reason = ReasonExcluded
		return res
	}
	res.Canonical = &canonical
	res.Parsed = Parse(canonical)
	if device == "" {
		res.Status = StatusUnmapped
		res.Reason = ReasonNoDevice
		return res
	}
	b, ok := n.Bucket(res.Parsed, device)
	if !ok {
		res.Status = StatusUnmapped
		res.Reason = ReasonNoBucket
		return res
	}
	res.Combined = &b
	if res.Parsed.Type == Bipolar {
		res.Status = StatusBipolar
	} else {
		res.Status = StatusUnipolar
	}
	return res
}

// ReviewEntry is one distinct unmapped (value, device) pair.
type ReviewEntry struct {
	Value     string `json:"value"`
	Canonical string `json:"canonical,omitempty"`
	Device    string `json:"device"`
	Reason    string `json:"reason"`
	Count     int    `json:"count"`
}

// ReviewList collects unmapped settings for manual follow-up.
type ReviewList struct {
	idx     map[string]int
	entries []ReviewEntry
}

// NewReviewList returns an empty list.
func NewReviewList() *ReviewList {
	return &ReviewList{idx: map[string]int{}}
}

// Add records res if it is unmapped and reports whether it did.
func (l *ReviewList) Add(res Result, device string) bool {
	if res.Status != StatusUnmapped {
		return false
	}
	l.AddValue(res.Raw, res.Canonical, device, res.Reason)
	return true
}

// AddValue records one unmapped row.
func (l *ReviewList) AddValue(value string, canonical *string, device, reason string) {
	key := value + "\x00" + device
	if i, ok := l.idx[key]; ok {
		l.entries[i].Count++
		return
	}
	e := ReviewEntry{Value: value, Device: device, Reason: reason, Count: 1}
	if canonical != nil {
		e.Canonical = *canonical
	}
	l.idx[key] = len(l.entries)
	l.entries = append(l.entries, e)
}

// Len returns the number of distinct entries.
func (l *ReviewList) Len() int { return len(l.entries) }

// Total returns the number of unmapped rows.
func (l *ReviewList) Total() int {
	n := 0
	for _, e := range l.entries {
		n += e.Count
	}
	return n
}

// Entries returns a copy sorted by device, then value.
func (l *ReviewList) Entries() []ReviewEntry {
	out := make([]ReviewEntry, len(l.entries))
	copy(out, l.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Device != out[j].Device {
			return out[i].Device < out[j].Device
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Markdown renders the list for review.
func (l *ReviewList) Markdown() string {
	var b strings.Builder
	b.WriteString("[UNMAPPED SETTINGS]\n")
	if len(l.entries) == 0 {
		b.WriteString("- none\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Distinct: %d, rows: %d\n\n", l.Len(), l.Total()))
	b.WriteString("| value | canonical | device | reason | count |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, e := range l.Entries() {
		dev := e.Device
		if dev == "" {
			dev = "(none)"
		}
		val := e.Value
		if val == "" {
			val = "(blank)"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n", val, e.Canonical, dev, e.Reason, e.Count))
	}
	return b.String()
}
