package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/settings"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

func amp(v float64) *float64 { return &v }
func sev(v int) *int         { return &v }
func str(s string) *string   { return &s }

func row(subject string, a *float64, parts ...annotate.BodyPart) record.Normalized {
	n := record.Normalized{
		Raw:             record.Raw{SubjectID: subject, Visit: "1 Month", Amplitude: a},
		BodyPart:        parts,
		Laterality:      annotate.Unknown,
		StimulationType: settings.Unipolar,
		SettingsStatus:  settings.StatusUnipolar,
		CombinedSetting: str("2a/10a"),
	}
	return n
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})
	if s.Count != 4 || s.Min != 1 || s.Max != 4 || s.Mean != 2.5 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Q1 != 1.75 || s.Median != 2.5 || s.Q3 != 3.25 {
		t.Fatalf("unexpected quartiles: %+v", s)
	}
	// sample std of 1..4
	if math.Abs(s.Std-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Fatalf("unexpected std: %v", s.Std)
	}
	if one := Describe([]float64{7}); one.Std != 0 || one.Median != 7 {
		t.Fatalf("single value: %+v", one)
	}
	if empty := Describe(nil); empty.Count != 0 {
		t.Fatalf("empty: %+v", empty)
	}
}

func TestSummarizeSkipsAbsent(t *testing.T) {
	rows := []record.Normalized{row("A", amp(2)), row("A", nil), row("B", amp(4))}
	rows[0].Severity = sev(0)
	rows[2].Severity = sev(6)
	s := Summarize(rows)
	if s.Amplitude.Count != 2 || s.Amplitude.Mean != 3 {
		t.Fatalf("amplitude: %+v", s.Amplitude)
	}
	if s.Severity.Count != 2 || s.Severity.Min != 0 || s.Severity.Max != 6 {
		t.Fatalf("severity: %+v", s.Severity)
	}
}

func TestBodyPartFrequencyFansOut(t *testing.T) {
	rows := []record.Normalized{
		row("A", nil, annotate.Face, annotate.Arm),
		row("A", nil, annotate.Face),
		row("B", nil),
	}
	got := BodyPartFrequency(rows)
	want := []CategoryCount{{Value: "face", Count: 2}, {Value: "arm", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("frequency mismatch (-want +got):\n%s", diff)
	}
	total := 0
	for _, c := range got {
		total += c.Count
	}
	if total < 2 {
		t.Fatalf("fan-out total %d should exceed record count with parts", total)
	}
}

func TestAmplitudeAndCombinedFrequency(t *testing.T) {
	rows := []record.Normalized{row("A", amp(2.5)), row("A", amp(1)), row("B", amp(2.5)), row("B", nil)}
	rows[1].CombinedSetting = str("1/9")
	rows[3].CombinedSetting = nil
	if diff := cmp.Diff([]CategoryCount{{"1", 1}, {"2.5", 2}}, AmplitudeFrequency(rows)); diff != "" {
		t.Fatalf("amplitude frequency (-want +got):\n%s", diff)
	}
	got := CombinedSettingFrequency(rows, tables.Default().Buckets)
	if diff := cmp.Diff([]CategoryCount{{"1/9", 1}, {"2a/10a", 2}}, got); diff != "" {
		t.Fatalf("combined frequency (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]CategoryCount{{"unipolar", 3}}, StimulationTypeFrequency(rows)); diff != "" {
		t.Fatalf("stimulation frequency (-want +got):\n%s", diff)
	}
}

func TestFaceAndUpperExtremity(t *testing.T) {
	opt := DefaultCohortOptions(tables.Default())
	var rows []record.Normalized
	// five face+hand rows across two subjects
	for i, a := range []float64{1, 2, 3, 4, 5} {
		rows = append(rows, row([]string{"S1", "S2"}[i%2], amp(a), annotate.Hand, annotate.Face))
	}
	// four tongue+arm rows: below the size threshold
	for i := 0; i < 4; i++ {
		rows = append(rows, row("S3", amp(1), annotate.Arm, annotate.Tongue))
	}
	// face only, and a bipolar face+hand row: never in the cohort
	rows = append(rows, row("S4", amp(1), annotate.Face))
	bip := row("S4", amp(1), annotate.Hand, annotate.Face)
	bip.StimulationType = settings.Bipolar
	bip.SettingsStatus = settings.StatusBipolar
	rows = append(rows, bip)

	got, err := FaceAndUpperExtremity(rows, opt)
	if err != nil {
		t.Fatalf("cohort: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one group, got %+v", got)
	}
	g := got[0]
	if g.Key != "hand+face" || g.Count != 5 || g.Subjects != 2 || g.MeanAmplitude != 3 {
		t.Fatalf("unexpected group: %+v", g)
	}
	if math.Abs(g.SDAmplitude-math.Sqrt(2.5)) > 1e-12 {
		t.Fatalf("unexpected sd: %v", g.SDAmplitude)
	}

	opt.MinGroupSize = 1
	opt.GroupBy = []string{KeyBodyPart, KeyVisit}
	got, err = FaceAndUpperExtremity(rows, opt)
	if err != nil {
		t.Fatalf("cohort: %v", err)
	}
	if len(got) != 2 || got[1].Key != "arm+tongue | 1 Month" {
		t.Fatalf("unexpected groups: %+v", got)
	}

	opt.GroupBy = []string{"nope"}
	if _, err := FaceAndUpperExtremity(rows, opt); err == nil {
		t.Fatalf("expected error for unknown group key")
	}
}

func TestReportMarkdown(t *testing.T) {
	rows := []record.Normalized{row("A", amp(2), annotate.Face, annotate.Hand)}
	rep, err := Analyze(rows, tables.Default(), DefaultCohortOptions(tables.Default()))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	rep.Name = "instances.csv"
	rep.Warnings = []string{"1 malformed amplitude"}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "Records: 1", "Subjects: 1",
		"[DESCRIPTIVE STATISTICS]", "| amplitude_ma | 1 |", "| severity | 0 |",
		"[BODY PART FREQUENCY]", "| face | 1 |",
		"[COMBINED SETTING FREQUENCY]", "| 2a/10a | 1 |",
		"[FACE + UPPER EXTREMITY COHORT]", "no group meets the size threshold",
		"[NOTES]", "- 1 malformed amplitude",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
