// Package viewer shapes the normalized table for a single subject and visit
// and renders it as an SVG chart, optionally behind a small HTTP server.
package viewer

import (
	"sort"

	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// Point is one chart mark. Placeholders fill (bucket, device) combinations
// with no recorded test and carry no amplitude.
type Point struct {
	SubjectID       string   `json:"subject_id"`
	Visit           string   `json:"visit"`
	CombinedSetting string   `json:"combined_setting"`
	Device          string   `json:"device"`
	RepeatInstance  int      `json:"repeat_instance,omitempty"`
	Settings        string   `json:"settings,omitempty"`
	Amplitude       *float64 `json:"amplitude_ma"`
	Severity        *int     `json:"severity"`
	BodyPart        string   `json:"body_part,omitempty"`
	ParesthesiaType string   `json:"paresthesia_type,omitempty"`
	Placeholder     bool     `json:"placeholder"`
}

// Viewer holds an immutable normalized table and its chart axes.
type Viewer struct {
	rows     []record.Normalized
	tables   *tables.Tables
	visits   []string
	subjects []string
	devices  []string
}

// New indexes rows for charting. The viewer never mutates rows.
func New(rows []record.Normalized, t *tables.Tables) *Viewer {
	v := &Viewer{rows: rows, tables: t}

	subjects := map[string]struct{}{}
	visits := map[string]struct{}{}
	devices := map[string]struct{}{}
	for i := range rows {
		subjects[rows[i].SubjectID] = struct{}{}
		visits[rows[i].Visit] = struct{}{}
		if d := rows[i].DeviceCode(); d != "" {
			devices[d] = struct{}{}
		}
	}
	v.subjects = sortedKeys(subjects)
	v.devices = sortedKeys(devices)

	v.visits = sortedKeys(visits)
	sort.SliceStable(v.visits, func(i, j int) bool {
		return t.VisitIndex(v.visits[i]) < t.VisitIndex(v.visits[j])
	})
	return v
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BucketOrder returns the x-axis categories in canonical order.
func (v *Viewer) BucketOrder() []string {
	return append([]string(nil), v.tables.Buckets...)
}

// Subjects lists every subject ID in the table.
func (v *Viewer) Subjects() []string { return append([]string(nil), v.subjects...) }

// Visits lists every visit in protocol order; unknown visits sort last.
func (v *Viewer) Visits() []string { return append([]string(nil), v.visits...) }

// Devices lists every device code present in the table.
func (v *Viewer) Devices() []string { return append([]string(nil), v.devices...) }

// Points returns the chart marks for subject at visit: recorded tests with
// a combined setting, ordered by repeat instance, followed by a placeholder
// for every bucket and device pair the subject has no test for, ordered by
// bucket.
func (v *Viewer) Points(subject, visit string) []Point {
	var recorded []Point
	seen := map[[2]string]bool{}
	for i := range v.rows {
		n := &v.rows[i]
		if n.SubjectID != subject || n.Visit != visit || n.CombinedSetting == nil {
			continue
		}
		p := Point{
			SubjectID:       n.SubjectID,
			Visit:           n.Visit,
			CombinedSetting: *n.CombinedSetting,
			Device:          n.DeviceCode(),
			RepeatInstance:  n.RepeatInstance,
			Settings:        n.Settings,
			Amplitude:       n.Amplitude,
			Severity:        n.Severity,
			BodyPart:        annotate.Join(n.BodyPart),
			ParesthesiaType: n.ParesthesiaType,
		}
		recorded = append(recorded, p)
		seen[[2]string{p.CombinedSetting, p.Device}] = true
	}
	sort.SliceStable(recorded, func(i, j int) bool {
		if recorded[i].RepeatInstance != recorded[j].RepeatInstance {
			return recorded[i].RepeatInstance < recorded[j].RepeatInstance
		}
		return v.rank(recorded[i].CombinedSetting) < v.rank(recorded[j].CombinedSetting)
	})

	out := recorded
	for _, b := range v.tables.Buckets {
		for _, d := range v.devices {
			if seen[[2]string{b, d}] {
				continue
			}
			out = append(out, Point{SubjectID: subject, Visit: visit, CombinedSetting: b, Device: d, Placeholder: true})
		}
	}
	return out
}

func (v *Viewer) rank(bucket string) int {
	if r := v.tables.BucketIndex(bucket); r >= 0 {
		return r
	}
	return len(v.tables.Buckets)
}
