// Package analysis builds read-only statistical views over normalized
// records and renders them as a Markdown report.
package analysis

import (
	"fmt"
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

// Report is a markdown-friendly summary of one normalized table.
type Report struct {
	Name       string
	RunID      string
	Rows       int
	Subjects   int
	Summary    Summary
	Amplitude  []CategoryCount
	BodyParts  []CategoryCount
	Combined   []CategoryCount
	Laterality []CategoryCount
	StimType   []CategoryCount
	Cohort     []CohortGroup
	CohortOpt  CohortOptions
	Warnings   []string
}

// Analyze computes every view for rows.
func Analyze(rows []record.Normalized, t *tables.Tables, opt CohortOptions) (*Report, error) {
	cohort, err := FaceAndUpperExtremity(rows, opt)
	if err != nil {
		return nil, fmt.Errorf("cohort: %w", err)
	}
	subjects := map[string]struct{}{}
	for i := range rows {
		subjects[rows[i].SubjectID] = struct{}{}
	}
	return &Report{
		Rows:       len(rows),
		Subjects:   len(subjects),
		Summary:    Summarize(rows),
		Amplitude:  AmplitudeFrequency(rows),
		BodyParts:  BodyPartFrequency(rows),
		Combined:   CombinedSettingFrequency(rows, t.Buckets),
		Laterality: LateralityFrequency(rows),
		StimType:   StimulationTypeFrequency(rows),
		Cohort:     cohort,
		CohortOpt:  opt,
	}, nil
}

// Markdown renders the report in bracketed sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Name))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Records: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Subjects: %d\n\n", r.Subjects))

	b.WriteString("[DESCRIPTIVE STATISTICS]\n")
	b.WriteString("| field | count | mean | std | min | 25% | 50% | 75% | max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
	writeNum(&b, "amplitude_ma", r.Summary.Amplitude)
	writeNum(&b, "severity", r.Summary.Severity)

	writeCounts(&b, "AMPLITUDE FREQUENCY", "amplitude_ma", r.Amplitude)
	writeCounts(&b, "BODY PART FREQUENCY", "body_part", r.BodyParts)
	writeCounts(&b, "COMBINED SETTING FREQUENCY", "combined_setting", r.Combined)
	writeCounts(&b, "LATERALITY", "laterality", r.Laterality)
	writeCounts(&b, "STIMULATION TYPE", "stimulation_type", r.StimType)

	b.WriteString("\n[FACE + UPPER EXTREMITY COHORT]\n")
	b.WriteString(fmt.Sprintf("Unipolar records naming both %s and %s; grouped by %s; groups with n >= %d.\n",
		strings.Join(r.CohortOpt.Facial, "/"), strings.Join(r.CohortOpt.Upper, "/"),
		strings.Join(r.CohortOpt.GroupBy, ", "), r.CohortOpt.MinGroupSize))
	if len(r.Cohort) == 0 {
		b.WriteString("- no group meets the size threshold\n")
	} else {
		b.WriteString("| group | n | mean amplitude | sd amplitude | subjects |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, g := range r.Cohort {
			b.WriteString(fmt.Sprintf("| %s | %d | %.3f | %.3f | %d |\n", safeVal(g.Key), g.Count, g.MeanAmplitude, g.SDAmplitude, g.Subjects))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeNum(b *strings.Builder, name string, s NumSummary) {
	if s.Count == 0 {
		b.WriteString(fmt.Sprintf("| %s | 0 | | | | | | | |\n", name))
		return
	}
	b.WriteString(fmt.Sprintf("| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g |\n",
		name, s.Count, s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max))
}

func writeCounts(b *strings.Builder, title, col string, counts []CategoryCount) {
	b.WriteString(fmt.Sprintf("\n[%s]\n", title))
	if len(counts) == 0 {
		b.WriteString("- none\n")
		return
	}
	b.WriteString(fmt.Sprintf("| %s | count |\n| --- | --- |\n", col))
	for _, kv := range counts {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", safeVal(kv.Value), kv.Count))
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
