// Package record defines the canonical test-instance schema and loads it
// from the two case-report-form exports.
package record

import (
	"github.com/petermgrund/paresthesias-analysis/internal/annotate"
	"github.com/petermgrund/paresthesias-analysis/internal/settings"
)

// Device is the short vendor code of an implanted system.
type Device string

const (
	BostonScientific Device = "BS"
	Abbott           Device = "AB"
)

// deviceNames maps the export's vendor labels to short codes.
var deviceNames = map[string]Device{
	"boston scientific": BostonScientific,
	"abbott":            Abbott,
}

// Raw is one stimulation test instance as exported, renamed to the
// canonical schema.
type Raw struct {
	SubjectID           string
	Visit               string
	RepeatInstance      int
	RepeatInstrument    string
	ConfigurationNumber string
	Settings            string // lower-cased
	AmplitudeRaw        string
	Amplitude           *float64
	ParesthesiaType     string
	Duration            string
	Notes               *string
	Device              *Device
}

// DeviceCode returns the device code, or "" when the subject had no match.
func (r *Raw) DeviceCode() string {
	if r.Device == nil {
		return ""
	}
	return string(*r.Device)
}

// Normalized is a Raw record plus every derived field.
type Normalized struct {
	Raw

	BodyPart          []annotate.BodyPart
	BrainSide         string
	Laterality        annotate.Laterality
	Severity          *int
	CanonicalSettings *string
	WorkingSettings   string
	ContactLead       string
	StimulationType   settings.StimulationType
	CombinedSetting   *string
	SettingsStatus    settings.Status
	UnmappedReason    string
}

// HasBodyPart reports whether any of the named categories was found.
func (n *Normalized) HasBodyPart(group []string) bool {
	return annotate.Intersects(n.BodyPart, group)
}
