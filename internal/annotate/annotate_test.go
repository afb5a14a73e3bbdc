package annotate

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/petermgrund/paresthesias-analysis/internal/tables"
)

func ptr(s string) *string { return &s }

func TestBodyPartMatch(t *testing.T) {
	m := NewBodyPartMatcher(tables.Default().BodyParts)
	cases := []struct {
		name  string
		notes *string
		want  []BodyPart
	}{
		{"nil notes", nil, nil},
		{"no hit", ptr("mild discomfort"), []BodyPart{}},
		{"face and tongue", ptr("tingling in face and tongue"), []BodyPart{Tongue, Face}},
		{"forearm also hits arm", ptr("Tingling in R hand and forearm"), []BodyPart{Arm, ForearmAndElbow, Hand}},
		{"case insensitive keyword", ptr("FINGERTIPS buzzing"), []BodyPart{Fingers}},
		{"exact acronym", ptr("RUE numbness"), []BodyPart{Arm}},
		{"acronym needs case", ptr("tongue pulling"), []BodyPart{Tongue}},
		{"non-breaking space", ptr("whole\u00a0body tingle"), []BodyPart{ChestEntireBody}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Match(tc.notes)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Match(%v) mismatch (-want +got):\n%s", tc.notes, diff)
			}
		})
	}
}

func TestBodyPartMatchOrderInsensitive(t *testing.T) {
	rules := tables.Default().BodyParts
	reversed := make([]tables.BodyPartRule, len(rules))
	for i, r := range rules {
		reversed[len(rules)-1-i] = r
	}
	a := NewBodyPartMatcher(rules)
	b := NewBodyPartMatcher(reversed)
	notes := ptr("pulling at lip, cheek and left shoulder, then hand")

	set := func(ps []BodyPart) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = string(p)
		}
		sort.Strings(out)
		return out
	}
	first := a.Match(notes)
	if diff := cmp.Diff(set(first), set(b.Match(notes))); diff != "" {
		t.Fatalf("category set depends on declaration order:\n%s", diff)
	}
	if diff := cmp.Diff(first, a.Match(notes)); diff != "" {
		t.Fatalf("repeated match differs:\n%s", diff)
	}
	if got := Join(first); got != "hand+face+shoulder" {
		t.Fatalf("Join = %q", got)
	}
}

func TestIntersects(t *testing.T) {
	g := tables.Default().Groups
	parts := []BodyPart{Face, Hand}
	if !Intersects(parts, g["facial"]) || !Intersects(parts, g["upper_extremity"]) {
		t.Fatalf("expected face+hand to hit both groups")
	}
	if Intersects([]BodyPart{Leg}, g["facial"]) {
		t.Fatalf("leg is not facial")
	}
}

func TestLaterality(t *testing.T) {
	cases := []struct {
		subject string
		notes   *string
		want    Laterality
	}{
		{"DBS003R", ptr("reports tingling on right side"), Ipsilateral},
		{"DBS003L", ptr("reports tingling on right side"), Contralateral},
		{"DBS003L", ptr("Left hand pulling"), Ipsilateral},
		{"DBS003R", ptr("left hand pulling"), Contralateral},
		{"DBS003R", ptr("tingling in r hand"), Ipsilateral},
		{"DBS003L", ptr("tingling in r hand"), Contralateral},
		{"DBS003R", ptr("L face"), Contralateral},
		{"DBS003R", ptr("tingling in face"), Unknown},
		{"DBS003R", nil, Unknown},
		{"DBS003X", ptr("right arm"), Unknown},
		// contralateral branches accept "right" inside other words
		{"DBS003L", ptr("bright flash"), Contralateral},
		{"DBS003R", ptr("bright flash"), Unknown},
	}
	for _, tc := range cases {
		got := ClassifyLaterality(tc.subject, tc.notes)
		if got != tc.want {
			t.Errorf("ClassifyLaterality(%q, %v) = %s, want %s", tc.subject, deref(tc.notes), got, tc.want)
		}
	}
}

func TestBrainSide(t *testing.T) {
	for in, want := range map[string]string{"DBS003R": "R", "dbs003l": "L", "DBS004": "4", "": ""} {
		if got := BrainSide(in); got != want {
			t.Errorf("BrainSide(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSeverity(t *testing.T) {
	cases := []struct {
		notes *string
		want  *int
	}{
		{ptr("patient reports 7/10 tingling"), intPtr(7)},
		{ptr("mild discomfort"), nil},
		{ptr("10/10 intense"), intPtr(10)},
		{ptr("0/10, barely noticed"), intPtr(0)},
		{ptr("3/10 then 8/10 at higher amplitude"), intPtr(3)},
		{ptr("7/100 scale"), nil},
		{nil, nil},
	}
	for _, tc := range cases {
		got := Severity(tc.notes)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Severity(%q) mismatch (-want +got):\n%s", deref(tc.notes), diff)
		}
	}
}

func intPtr(v int) *int { return &v }

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
