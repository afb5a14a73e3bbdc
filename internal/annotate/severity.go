package annotate

import (
	"regexp"
	"strconv"
)

var severityRe = regexp.MustCompile(`(?:^|[^0-9])(10|[0-9])/10(?:[^0-9]|$)`)

// Severity returns the first "<n>/10" score in notes, or nil when there is
// none. A parsed 0 is returned as a non-nil 0.
func Severity(notes *string) *int {
	if notes == nil {
		return nil
	}
	m := severityRe.FindStringSubmatch(fold(*notes))
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}
