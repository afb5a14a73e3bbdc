package parser

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadTableCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "instances.csv")
	content := "\xEF\xBB\xBFStudy ID,Notes,Amplitude (mA)\n" +
		"DBS001L,\"tingling, left hand\",2.5\n" +
		"DBS002R,short\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := ReadTable(p, Options{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	want := &Table{
		Name:   "instances.csv",
		Header: []string{"Study ID", "Notes", "Amplitude (mA)"},
		Rows: [][]string{
			{"DBS001L", "tingling, left hand", "2.5"},
			{"DBS002R", "short", ""},
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
	if idx := tbl.Index(); idx["Study ID"] != 0 || idx["Amplitude (mA)"] != 2 {
		t.Fatalf("unexpected index: %v", idx)
	}
}

func TestReadTableTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "devices.tsv")
	if err := os.WriteFile(p, []byte("Study ID\tDevice\nDBS001L\tAbbott\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := ReadTable(p, Options{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][1] != "Abbott" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadTable(filepath.Join(dir, "missing.csv"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := filepath.Join(dir, "notes.docx")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadTable(p, Options{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func writeXLSX(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReadTableXLSX(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "export.xlsx")
	writeXLSX(t, p, map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Summary" sheetId="1" r:id="rId1"/><sheet name="Tests" sheetId="2" r:id="rId2"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/>` +
			`<Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/></Relationships>`,
		"xl/sharedStrings.xml": `<sst><si><t>Study ID</t></si><si><t>Full settings</t></si><si><t>DBS001L</t></si><si><r><t>2a</t></r><r><t>-</t></r></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>ignored</t></is></c></row></sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><t>Amplitude (mA)</t></is></c></row>` +
			`<row r="2"><c r="A2" t="s"><v>2</v></c><c r="C2"><v>1.5</v></c></row>` +
			`<row r="3"/>` +
			`<row r="4"><c r="A4" t="s"><v>2</v></c><c r="B4" t="s"><v>3</v></c></row>` +
			`</sheetData></worksheet>`,
	})

	tbl, err := ReadTable(p, Options{SheetName: "tests"})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	want := &Table{
		Name:   "export.xlsx",
		Header: []string{"Study ID", "Full settings", "Amplitude (mA)"},
		Rows: [][]string{
			{"DBS001L", "", "1.5"},
			{"DBS001L", "2a-", ""},
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}

	byIndex, err := ReadTable(p, Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("ReadTable by index: %v", err)
	}
	if diff := cmp.Diff(want.Rows, byIndex.Rows); diff != "" {
		t.Fatalf("sheet index selection mismatch:\n%s", diff)
	}

	first, err := ReadTable(p, Options{})
	if err != nil {
		t.Fatalf("ReadTable default sheet: %v", err)
	}
	if len(first.Header) != 1 || first.Header[0] != "ignored" {
		t.Fatalf("expected first sheet by default, got %v", first.Header)
	}

	_, err = ReadTable(p, Options{SheetName: "Nope"})
	if err == nil || !strings.Contains(err.Error(), "Summary, Tests") {
		t.Fatalf("expected available sheets in error, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	for ref, want := range map[string]int{"A1": 0, "C12": 2, "AA3": 26, "": -1, "12": -1} {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}
