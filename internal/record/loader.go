package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/petermgrund/paresthesias-analysis/internal/parser"
)

// Export column names.
const (
	ColStudyID          = "Study ID"
	ColEventName        = "Event Name"
	ColRepeatInstance   = "Repeat Instance"
	ColRepeatInstrument = "Repeat Instrument"
	ColConfiguration    = "Configuration number"
	ColSettings         = "Full settings"
	ColAmplitude        = "Amplitude (mA)"
	ColParesthesiaType  = "Type of paresthesia?"
	ColDuration         = "Length of paresthesia (sec)"
	ColNotes            = "Notes"
	ColDevice           = "1. Which device does this patient have?"
)

var (
	instanceRequired = []string{ColStudyID, ColEventName, ColRepeatInstance, ColRepeatInstrument, ColSettings, ColAmplitude, ColNotes}
	deviceRequired   = []string{ColStudyID, ColDevice}
)

// ErrMissingColumn is matched by every MissingColumnError.
var ErrMissingColumn = errors.New("missing required column")

// MissingColumnError reports a required export column that is absent.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Table, e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// LoadStats counts the value-level anomalies seen while loading.
type LoadStats struct {
	InstanceRows       int
	BlankInstrument    int
	Kept               int
	BlankAmplitude     int
	MalformedAmplitude int
	BadRepeatInstance  int
	DeviceRows         int
	DeviceSubjects     int
	UnknownVendor      int
	UnmatchedDevice    int
}

func requireColumns(t *parser.Table, cols []string) (map[string]int, error) {
	idx := t.Index()
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return nil, &MissingColumnError{Table: t.Name, Column: c}
		}
	}
	return idx, nil
}

// cell returns the trimmed value of col, or "" when the column is absent.
func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadInstances renames test-instance rows into Raw records, dropping rows
// whose repeat instrument is blank.
func LoadInstances(t *parser.Table, st *LoadStats) ([]Raw, error) {
	idx, err := requireColumns(t, instanceRequired)
	if err != nil {
		return nil, err
	}
	out := make([]Raw, 0, len(t.Rows))
	for _, row := range t.Rows {
		st.InstanceRows++
		if cell(row, idx, ColRepeatInstrument) == "" {
			st.BlankInstrument++
			continue
		}
		r := Raw{
			SubjectID:           cell(row, idx, ColStudyID),
			Visit:               cell(row, idx, ColEventName),
			RepeatInstrument:    cell(row, idx, ColRepeatInstrument),
			ConfigurationNumber: cell(row, idx, ColConfiguration),
			Settings:            strings.ToLower(cell(row, idx, ColSettings)),
			AmplitudeRaw:        cell(row, idx, ColAmplitude),
			ParesthesiaType:     strings.ToLower(cell(row, idx, ColParesthesiaType)),
			Duration:            cell(row, idx, ColDuration),
		}
		if n, err := strconv.Atoi(cell(row, idx, ColRepeatInstance)); err == nil {
			r.RepeatInstance = n
		} else {
			st.BadRepeatInstance++
		}
		switch amp, ok := ParseAmplitude(r.AmplitudeRaw); {
		case r.AmplitudeRaw == "":
			st.BlankAmplitude++
		case !ok:
			st.MalformedAmplitude++
		default:
			r.Amplitude = &amp
		}
		if notes := cell(row, idx, ColNotes); notes != "" {
			r.Notes = &notes
		}
		out = append(out, r)
	}
	st.Kept = len(out)
	return out, nil
}

// ParseAmplitude reads a milliamp value such as "2.5", "2,5" or "2.5 mA".
func ParseAmplitude(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(strings.ToLower(s), "ma") {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LoadDevices maps each subject to its device. The first row with a known
// vendor wins; blank cells are skipped and unknown vendors counted.
func LoadDevices(t *parser.Table, st *LoadStats) (map[string]Device, error) {
	idx, err := requireColumns(t, deviceRequired)
	if err != nil {
		return nil, err
	}
	out := map[string]Device{}
	for _, row := range t.Rows {
		st.DeviceRows++
		subject := cell(row, idx, ColStudyID)
		vendor := cell(row, idx, ColDevice)
		if subject == "" || vendor == "" {
			continue
		}
		d, ok := deviceNames[strings.ToLower(vendor)]
		if !ok {
			st.UnknownVendor++
			continue
		}
		if _, seen := out[subject]; !seen {
			out[subject] = d
		}
	}
	st.DeviceSubjects = len(out)
	return out, nil
}

// JoinDevices sets Device on every record by subject ID. Records without a
// match keep a nil Device.
func JoinDevices(raws []Raw, devices map[string]Device, st *LoadStats) {
	for i := range raws {
		d, ok := devices[raws[i].SubjectID]
		if !ok {
			raws[i].Device = nil
			st.UnmatchedDevice++
			continue
		}
		raws[i].Device = &d
	}
}
