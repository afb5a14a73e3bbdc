package cmd

import (
	"fmt"
	"io"
	"os"

	cfgpkg "github.com/petermgrund/paresthesias-analysis/internal/config"
	"github.com/petermgrund/paresthesias-analysis/internal/parser"
	"github.com/petermgrund/paresthesias-analysis/internal/pipeline"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// runPipeline loads the lookup tables and both exports and normalizes them.
func runPipeline(c *cfgpkg.Global, instances, devices string) (*pipeline.Result, *tables.Tables, error) {
	t, err := tables.Load(c.TablesFile)
	if err != nil {
		return nil, nil, err
	}
	opt := pipeline.Options{
		Parallel: c.Parallel,
		Read:     parser.Options{SheetName: c.XLSXSheet},
	}
	if debug {
		opt.Debug = os.Stderr
	}
	res, err := pipeline.New(t, opt).LoadFiles(instances, devices)
	if err != nil {
		return nil, nil, err
	}
	return res, t, nil
}

// diagnostics lists the non-zero anomaly counters of a run.
func diagnostics(res *pipeline.Result) []string {
	var out []string
	add := func(n int, format string) {
		if n > 0 {
			out = append(out, fmt.Sprintf(format, n))
		}
	}
	l := res.Load
	add(l.BlankInstrument, "%d rows with a blank repeat instrument dropped")
	add(l.BlankAmplitude, "%d records without an amplitude")
	add(l.MalformedAmplitude, "%d records with a malformed amplitude")
	add(l.BadRepeatInstance, "%d records with a non-numeric repeat instance")
	add(l.UnknownVendor, "%d device rows with an unknown vendor")
	add(l.UnmatchedDevice, "%d records whose subject has no device")
	add(res.Stats.ExcludedSettings, "%d records with excluded settings")
	add(res.Stats.Unmapped, "%d records with unmapped settings (see 'paresthesia unmapped')")
	return out
}

func printDiagnostics(w io.Writer, res *pipeline.Result) {
	for _, d := range diagnostics(res) {
		fmt.Fprintf(w, "⚠ Warning: %s\n", d)
	}
}
