// Package pipeline loads both exports and turns raw test instances into
// normalized records in one batch run.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/parser"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/settings"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// Options controls a batch run.
type Options struct {
	// Parallel spreads the per-record stage over all CPUs. Output is
	// identical to a sequential run.
	Parallel bool
	// Read options for the two exports.
	Read parser.Options
	// Debug receives per-stage progress lines when non-nil.
	Debug io.Writer
}

// Result is the output of one run. Rows keep input order.
type Result struct {
	RunID     string
	StartedAt time.Time
	Rows      []record.Normalized
	Review    *settings.ReviewList
	Load      record.LoadStats
	Stats     Stats
}

// Stats counts normalization outcomes.
type Stats struct {
	Unipolar         int
	Bipolar          int
	Unmapped         int
	ExcludedSettings int
	NoDevice         int
	WithBodyPart     int
	WithSeverity     int
	Laterality       map[annotate.Laterality]int
}

// Pipeline holds the compiled tables for a run.
type Pipeline struct {
	tables   *tables.Tables
	parts    *annotate.BodyPartMatcher
	settings *settings.Normalizer
	opt      Options
}

// New compiles the lookup tables.
func New(t *tables.Tables, opt Options) *Pipeline {
	return &Pipeline{
		tables:   t,
		parts:    annotate.NewBodyPartMatcher(t.BodyParts),
		settings: settings.NewNormalizer(t),
		opt:      opt,
	}
}

// Tables returns the tables the pipeline was built with.
func (p *Pipeline) Tables() *tables.Tables { return p.tables }

func (p *Pipeline) debugf(format string, args ...any) {
	if p.opt.Debug != nil {
		fmt.Fprintf(p.opt.Debug, "[debug] "+format+"\n", args...)
	}
}

// LoadFiles reads the instance and device exports and runs the pipeline.
// Unreadable files and missing required columns are returned as errors.
func (p *Pipeline) LoadFiles(instancesPath, devicesPath string) (*Result, error) {
	it, err := parser.ReadTable(instancesPath, p.opt.Read)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	dt, err := parser.ReadTable(devicesPath, p.opt.Read)
	if err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}
	var st record.LoadStats
	raws, err := record.LoadInstances(it, &st)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	devices, err := record.LoadDevices(dt, &st)
	if err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}
	record.JoinDevices(raws, devices, &st)
	p.debugf("loaded %d/%d instance rows, %d device subjects", st.Kept, st.InstanceRows, st.DeviceSubjects)

	res := p.Run(raws)
	res.Load = st
	return res, nil
}

// Run normalizes raws. It never fails: anomalies are counted and unmapped
// settings land in the review list.
func (p *Pipeline) Run(raws []record.Raw) *Result {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Rows:      make([]record.Normalized, len(raws)),
		Review:    settings.NewReviewList(),
	}
	if p.opt.Parallel {
		parallel.Range(0, len(raws), 0, func(low, high int) {
			for i := low; i < high; i++ {
				res.Rows[i] = p.Normalize(raws[i])
			}
		})
	} else {
		for i := range raws {
			res.Rows[i] = p.Normalize(raws[i])
		}
	}

	res.Stats.Laterality = map[annotate.Laterality]int{}
	for i := range res.Rows {
		n := &res.Rows[i]
		switch n.SettingsStatus {
		case settings.StatusUnipolar:
			res.Stats.Unipolar++
		case settings.StatusBipolar:
			res.Stats.Bipolar++
		default:
			res.Stats.Unmapped++
		}
		if n.CanonicalSettings == nil {
			res.Stats.ExcludedSettings++
		}
		if n.Device == nil {
			res.Stats.NoDevice++
		}
		if len(n.BodyPart) > 0 {
			res.Stats.WithBodyPart++
		}
		if n.Severity != nil {
			res.Stats.WithSeverity++
		}
		res.Stats.Laterality[n.Laterality]++
	}
	// Review entries are collected after the map so their order does not
	// depend on scheduling.
	for i := range res.Rows {
		n := &res.Rows[i]
		if n.SettingsStatus == settings.StatusUnmapped {
			res.Review.AddValue(n.Settings, n.CanonicalSettings, n.DeviceCode(), n.UnmappedReason)
		}
	}
	p.debugf("run %s: %d unipolar, %d bipolar, %d unmapped", res.RunID, res.Stats.Unipolar, res.Stats.Bipolar, res.Stats.Unmapped)
	return res
}

// Normalize derives every annotated field of one record.
func (p *Pipeline) Normalize(r record.Raw) record.Normalized {
	n := record.Normalized{
		Raw:        r,
		BodyPart:   p.parts.Match(r.Notes),
		BrainSide:  annotate.BrainSide(r.SubjectID),
		Laterality: annotate.ClassifyLaterality(r.SubjectID, r.Notes),
		Severity:   annotate.Severity(r.Notes),
	}
	s := p.settings.Normalize(r.Settings, r.DeviceCode())
	n.CanonicalSettings = s.Canonical
	n.SettingsStatus = s.Status
	n.UnmappedReason = s.Reason
	n.CombinedSetting = s.Combined
	if s.Canonical != nil {
		n.WorkingSettings = s.Parsed.Working
		n.ContactLead = s.Parsed.ContactLead
		n.StimulationType = s.Parsed.Type
	}
	return n
}
