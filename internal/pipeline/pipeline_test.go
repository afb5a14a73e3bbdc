package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/settings"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

const instancesCSV = `Study ID,Event Name,Repeat Instrument,Repeat Instance,Configuration number,Full settings,Amplitude (mA),Type of paresthesia?,Length of paresthesia (sec),Notes
DBS001L,Initial Programming,paresthesia_testing,1,1,2a-,2.5,Transient,3,tingling right hand 4/10
DBS001L,Initial Programming,paresthesia_testing,2,2,99-,3.0,Persistent,,left face
DBS002R,1 Month,paresthesia_testing,1,1,2-/3+,1.5,Transient,,
DBS003L,1 Month,paresthesia_testing,1,1,n/a,2,,,arm
DBS001L,Initial Programming,,,,,,,,
`

const devicesCSV = `Study ID,Event Name,1. Which device does this patient have?
DBS001L,Initial Programming,Abbott
DBS002R,Initial Programming,Boston Scientific
`

func writeFixtures(t *testing.T, instances, devices string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ip := filepath.Join(dir, "instances.csv")
	dp := filepath.Join(dir, "devices.csv")
	if err := os.WriteFile(ip, []byte(instances), 0o644); err != nil {
		t.Fatalf("write instances: %v", err)
	}
	if err := os.WriteFile(dp, []byte(devices), 0o644); err != nil {
		t.Fatalf("write devices: %v", err)
	}
	return ip, dp
}

func TestLoadFiles(t *testing.T) {
	ip, dp := writeFixtures(t, instancesCSV, devicesCSV)
	res, err := New(tables.Default(), Options{}).LoadFiles(ip, dp)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(res.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(res.Rows))
	}
	if res.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if res.Load.BlankInstrument != 1 || res.Load.UnmatchedDevice != 1 {
		t.Fatalf("unexpected load stats: %+v", res.Load)
	}

	first := res.Rows[0]
	if first.CombinedSetting == nil || *first.CombinedSetting != "2a/10a" {
		t.Fatalf("first row bucket: %v", first.CombinedSetting)
	}
	if first.SettingsStatus != settings.StatusUnipolar || first.Laterality != annotate.Contralateral {
		t.Fatalf("first row: status %s laterality %s", first.SettingsStatus, first.Laterality)
	}
	if first.Severity == nil || *first.Severity != 4 {
		t.Fatalf("first row severity: %v", first.Severity)
	}
	if diff := cmp.Diff([]annotate.BodyPart{annotate.Hand}, first.BodyPart); diff != "" {
		t.Fatalf("first row body parts (-want +got):\n%s", diff)
	}

	bip := res.Rows[2]
	if bip.SettingsStatus != settings.StatusBipolar || bip.CombinedSetting == nil || *bip.CombinedSetting != "2a/10a" {
		t.Fatalf("bipolar row: %s %v", bip.SettingsStatus, bip.CombinedSetting)
	}
	if bip.Laterality != annotate.Unknown || bip.BodyPart != nil {
		t.Fatalf("row without notes should be unknown with nil parts, got %s %v", bip.Laterality, bip.BodyPart)
	}

	want := Stats{
		Unipolar: 1, Bipolar: 1, Unmapped: 2, ExcludedSettings: 1, NoDevice: 1,
		WithBodyPart: 3, WithSeverity: 1,
		Laterality: map[annotate.Laterality]int{
			annotate.Contralateral: 1, annotate.Ipsilateral: 1, annotate.Unknown: 2,
		},
	}
	if diff := cmp.Diff(want, res.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	wantReview := []settings.ReviewEntry{
		{Value: "n/a", Reason: settings.ReasonExcluded, Count: 1},
		{Value: "99-", Canonical: "99-", Device: "AB", Reason: settings.ReasonNoBucket, Count: 1},
	}
	if diff := cmp.Diff(wantReview, res.Review.Entries()); diff != "" {
		t.Fatalf("review mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var raws []record.Raw
	notes := []string{"right hand 3/10", "left face tingle", "arm and shoulder", "bright flash", ""}
	codes := []string{"2a-", "3bc-", "2-/3+", "1-/c+", "4-", "99", "n/a"}
	for i := 0; i < 500; i++ {
		r := record.Raw{
			SubjectID: []string{"DBS001L", "DBS002R"}[i%2],
			Visit:     "1 Month",
			Settings:  codes[i%len(codes)],
		}
		if n := notes[i%len(notes)]; n != "" {
			r.Notes = &n
		}
		if i%3 != 0 {
			d := record.Abbott
			r.Device = &d
		}
		raws = append(raws, r)
	}
	seq := New(tables.Default(), Options{}).Run(raws)
	par := New(tables.Default(), Options{Parallel: true}).Run(raws)
	if diff := cmp.Diff(seq.Rows, par.Rows); diff != "" {
		t.Fatalf("parallel rows differ (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.Stats, par.Stats); diff != "" {
		t.Fatalf("parallel stats differ (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.Review.Entries(), par.Review.Entries()); diff != "" {
		t.Fatalf("parallel review differs (-seq +par):\n%s", diff)
	}
}

func TestLoadFilesMissingColumn(t *testing.T) {
	header := strings.SplitN(instancesCSV, "\n", 2)[0]
	broken := strings.Replace(header, ",Notes", "", 1) + "\n"
	ip, dp := writeFixtures(t, broken, devicesCSV)
	_, err := New(tables.Default(), Options{}).LoadFiles(ip, dp)
	if !errors.Is(err, record.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadFilesMissingFile(t *testing.T) {
	_, dp := writeFixtures(t, instancesCSV, devicesCSV)
	if _, err := New(tables.Default(), Options{}).LoadFiles(filepath.Join(t.TempDir(), "nope.csv"), dp); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDebugOutput(t *testing.T) {
	var b strings.Builder
	New(tables.Default(), Options{Debug: &b}).Run(nil)
	if !strings.Contains(b.String(), "[debug] run ") {
		t.Fatalf("expected debug line, got %q", b.String())
	}
}
