// Package export writes the normalized table to Parquet or JSON.
package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/petermgrund/paresthesias-analysis/internal/record"
	"github.com/petermgrund/paresthesias-analysis/internal/utils"
)

// NormalizedRow is the flat, column-oriented form of record.Normalized.
type NormalizedRow struct {
	RunID               string   `parquet:"run_id" json:"run_id"`
	SubjectID           string   `parquet:"subject_id" json:"subject_id"`
	Visit               string   `parquet:"visit" json:"visit"`
	RepeatInstance      int32    `parquet:"repeat_instance" json:"repeat_instance"`
	RepeatInstrument    string   `parquet:"repeat_instrument" json:"repeat_instrument"`
	ConfigurationNumber string   `parquet:"configuration_number" json:"configuration_number"`
	Device              *string  `parquet:"device" json:"device"`
	Settings            string   `parquet:"settings" json:"settings"`
	CanonicalSettings   *string  `parquet:"canonical_settings" json:"canonical_settings"`
	WorkingSettings     string   `parquet:"working_settings" json:"working_settings"`
	ContactLead         string   `parquet:"contact_lead" json:"contact_lead"`
	StimulationType     string   `parquet:"stimulation_type" json:"stimulation_type"`
	CombinedSetting     *string  `parquet:"combined_setting" json:"combined_setting"`
	SettingsStatus      string   `parquet:"settings_status" json:"settings_status"`
	Amplitude           *float64 `parquet:"amplitude_ma" json:"amplitude_ma"`
	AmplitudeRaw        string   `parquet:"amplitude_raw" json:"amplitude_raw"`
	ParesthesiaType     string   `parquet:"paresthesia_type" json:"paresthesia_type"`
	Duration            string   `parquet:"duration" json:"duration"`
	Notes               *string  `parquet:"notes" json:"notes"`
	BodyPart            []string `parquet:"body_part,list" json:"body_part"`
	BrainSide           string   `parquet:"brain_side" json:"brain_side"`
	Laterality          string   `parquet:"laterality" json:"laterality"`
	Severity            *int32   `parquet:"severity" json:"severity"`
}

// Flatten converts rows, stamping each with runID.
func Flatten(runID string, rows []record.Normalized) []NormalizedRow {
	out := make([]NormalizedRow, len(rows))
	for i := range rows {
		n := &rows[i]
		r := NormalizedRow{
			RunID:               runID,
			SubjectID:           n.SubjectID,
			Visit:               n.Visit,
			RepeatInstance:      int32(n.RepeatInstance),
			RepeatInstrument:    n.RepeatInstrument,
			ConfigurationNumber: n.ConfigurationNumber,
			Settings:            n.Settings,
			CanonicalSettings:   n.CanonicalSettings,
			WorkingSettings:     n.WorkingSettings,
			ContactLead:         n.ContactLead,
			StimulationType:     string(n.StimulationType),
			CombinedSetting:     n.CombinedSetting,
			SettingsStatus:      string(n.SettingsStatus),
			Amplitude:           n.Amplitude,
			AmplitudeRaw:        n.AmplitudeRaw,
			ParesthesiaType:     n.ParesthesiaType,
			Duration:            n.Duration,
			Notes:               n.Notes,
			BrainSide:           n.BrainSide,
			Laterality:          string(n.Laterality),
		}
		if n.Device != nil {
			d := string(*n.Device)
			r.Device = &d
		}
		if n.BodyPart != nil {
			r.BodyPart = make([]string, len(n.BodyPart))
			for j, p := range n.BodyPart {
				r.BodyPart[j] = string(p)
			}
		}
		if n.Severity != nil {
			s := int32(*n.Severity)
			r.Severity = &s
		}
		out[i] = r
	}
	return out
}

// Write picks the format from the file extension (.parquet or .json).
func Write(path string, rows []NormalizedRow) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return WriteParquet(path, rows)
	case ".json":
		return WriteJSON(path, rows)
	}
	return fmt.Errorf("unsupported export format %q (use .parquet or .json)", filepath.Ext(path))
}

// WriteParquet writes rows as a Snappy-compressed Parquet file.
func WriteParquet(path string, rows []NormalizedRow) error {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[NormalizedRow](&buf,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("paresthesia", "1.0", ""),
	)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadParquet reads a file written by WriteParquet.
func ReadParquet(path string) ([]NormalizedRow, error) {
	rows, err := parquet.ReadFile[NormalizedRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(path string, rows []NormalizedRow) error {
	if rows == nil {
		rows = []NormalizedRow{}
	}
	b, err := utils.PrettyJSON(rows)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
