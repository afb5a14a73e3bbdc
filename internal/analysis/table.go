package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/settings"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// NumSummary describes one numeric column.
type NumSummary struct {
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation; 0 when Count < 2
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// CategoryCount is one row of a frequency table.
type CategoryCount struct {
	Value string
	Count int
}

// Describe summarizes values. An empty input returns the zero summary.
func Describe(values []float64) NumSummary {
	if len(values) == 0 {
		return NumSummary{}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	s := NumSummary{
		Count:  len(cp),
		Min:    cp[0],
		Max:    cp[len(cp)-1],
		Q1:     quantile(cp, 0.25),
		Median: quantile(cp, 0.5),
		Q3:     quantile(cp, 0.75),
	}
	s.Mean, s.Std = meanStd(cp)
	return s
}

func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean = sum / float64(len(vals))
	if len(vals) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(vals)-1))
}

// Summary holds descriptive statistics for the numeric fields.
type Summary struct {
	Amplitude NumSummary
	Severity  NumSummary
}

// Summarize describes amplitude and severity, skipping absent values.
func Summarize(rows []record.Normalized) Summary {
	var amp, sev []float64
	for i := range rows {
		if a := rows[i].Amplitude; a != nil {
			amp = append(amp, *a)
		}
		if s := rows[i].Severity; s != nil {
			sev = append(sev, float64(*s))
		}
	}
	return Summary{Amplitude: Describe(amp), Severity: Describe(sev)}
}

// counter accumulates a frequency table in first-seen order.
type counter struct {
	idx map[string]int
	out []CategoryCount
}

func newCounter() *counter { return &counter{idx: map[string]int{}} }

func (c *counter) add(v string) {
	if i, ok := c.idx[v]; ok {
		c.out[i].Count++
		return
	}
	c.idx[v] = len(c.out)
	c.out = append(c.out, CategoryCount{Value: v, Count: 1})
}

// byCount sorts by count descending, then value.
func (c *counter) byCount() []CategoryCount {
	sort.SliceStable(c.out, func(i, j int) bool {
		if c.out[i].Count != c.out[j].Count {
			return c.out[i].Count > c.out[j].Count
		}
		return c.out[i].Value < c.out[j].Value
	})
	return c.out
}

// AmplitudeFrequency counts each distinct amplitude, ordered by value.
func AmplitudeFrequency(rows []record.Normalized) []CategoryCount {
	counts := map[float64]int{}
	for i := range rows {
		if a := rows[i].Amplitude; a != nil {
			counts[*a]++
		}
	}
	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	out := make([]CategoryCount, len(keys))
	for i, k := range keys {
		out[i] = CategoryCount{Value: strconv.FormatFloat(k, 'g', -1, 64), Count: counts[k]}
	}
	return out
}

// BodyPartFrequency counts a record once under every category it names.
func BodyPartFrequency(rows []record.Normalized) []CategoryCount {
	c := newCounter()
	for i := range rows {
		for _, p := range rows[i].BodyPart {
			c.add(string(p))
		}
	}
	return c.byCount()
}

// CombinedSettingFrequency counts bucketed rows in bucket order.
func CombinedSettingFrequency(rows []record.Normalized, buckets []string) []CategoryCount {
	counts := map[string]int{}
	for i := range rows {
		if b := rows[i].CombinedSetting; b != nil {
			counts[*b]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for _, b := range buckets {
		if n := counts[b]; n > 0 {
			out = append(out, CategoryCount{Value: b, Count: n})
		}
	}
	return out
}

// LateralityFrequency counts every row by laterality.
func LateralityFrequency(rows []record.Normalized) []CategoryCount {
	c := newCounter()
	for i := range rows {
		c.add(string(rows[i].Laterality))
	}
	return c.byCount()
}

// StimulationTypeFrequency counts rows whose setting was bucketed.
func StimulationTypeFrequency(rows []record.Normalized) []CategoryCount {
	c := newCounter()
	for i := range rows {
		if rows[i].CombinedSetting != nil {
			c.add(string(rows[i].StimulationType))
		}
	}
	return c.byCount()
}

// Grouping keys accepted by CohortOptions.GroupBy.
const (
	KeyBodyPart        = "body_part"
	KeyCombinedSetting = "combined_setting"
	KeyVisit           = "visit"
	KeyLaterality      = "laterality"
	KeyBrainSide       = "brain_side"
	KeyDevice          = "device"
	KeyParesthesiaType = "paresthesia_type"
)

var groupKeys = map[string]func(*record.Normalized) string{
	KeyBodyPart: func(n *record.Normalized) string { return annotate.Join(n.BodyPart) },
	KeyCombinedSetting: func(n *record.Normalized) string {
		if n.CombinedSetting == nil {
			return ""
		}
		return *n.CombinedSetting
	},
	KeyVisit:           func(n *record.Normalized) string { return n.Visit },
	KeyLaterality:      func(n *record.Normalized) string { return string(n.Laterality) },
	KeyBrainSide:       func(n *record.Normalized) string { return n.BrainSide },
	KeyDevice:          func(n *record.Normalized) string { return n.DeviceCode() },
	KeyParesthesiaType: func(n *record.Normalized) string { return n.ParesthesiaType },
}

// CohortOptions configures FaceAndUpperExtremity.
type CohortOptions struct {
	Facial       []string
	Upper        []string
	GroupBy      []string
	MinGroupSize int
}

// DefaultCohortOptions takes both body-part groups from t and groups by
// body-part combination.
func DefaultCohortOptions(t *tables.Tables) CohortOptions {
	return CohortOptions{
		Facial:       t.Groups["facial"],
		Upper:        t.Groups["upper_extremity"],
		GroupBy:      []string{KeyBodyPart},
		MinGroupSize: 5,
	}
}

// CohortGroup is one grouping of the co-occurrence cohort.
type CohortGroup struct {
	Key           string
	Count         int
	AmplitudeN    int
	MeanAmplitude float64
	SDAmplitude   float64
	Subjects      int
}

// FaceAndUpperExtremity selects unipolar rows whose body parts hit both the
// facial and the upper-extremity group, groups them and keeps groups with
// at least MinGroupSize rows. Groups are ordered by count, then key.
func FaceAndUpperExtremity(rows []record.Normalized, opt CohortOptions) ([]CohortGroup, error) {
	if len(opt.GroupBy) == 0 {
		opt.GroupBy = []string{KeyBodyPart}
	}
	keyFns := make([]func(*record.Normalized) string, len(opt.GroupBy))
	for i, k := range opt.GroupBy {
		fn, ok := groupKeys[strings.TrimSpace(k)]
		if !ok {
			return nil, fmt.Errorf("unknown group-by key %q", k)
		}
		keyFns[i] = fn
	}

	type acc struct {
		count    int
		amps     []float64
		subjects map[string]struct{}
	}
	groups := map[string]*acc{}
	var order []string
	for i := range rows {
		n := &rows[i]
		if n.SettingsStatus != settings.StatusUnipolar {
			continue
		}
		if !n.HasBodyPart(opt.Facial) || !n.HasBodyPart(opt.Upper) {
			continue
		}
		parts := make([]string, len(keyFns))
		for j, fn := range keyFns {
			parts[j] = fn(n)
		}
		key := strings.Join(parts, " | ")
		g, ok := groups[key]
		if !ok {
			g = &acc{subjects: map[string]struct{}{}}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.subjects[n.SubjectID] = struct{}{}
		if n.Amplitude != nil {
			g.amps = append(g.amps, *n.Amplitude)
		}
	}

	var out []CohortGroup
	for _, key := range order {
		g := groups[key]
		if g.count < opt.MinGroupSize {
			continue
		}
		mean, sd := meanStd(g.amps)
		out = append(out, CohortGroup{
			Key:           key,
			Count:         g.count,
			AmplitudeN:    len(g.amps),
			MeanAmplitude: mean,
			SDAmplitude:   sd,
			Subjects:      len(g.subjects),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
