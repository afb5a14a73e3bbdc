// Package parser reads tabular exports (CSV, TSV, XLSX) into an in-memory
// Table of header and string cells.
package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Table is a header row plus data rows, every row padded to header width.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Index maps trimmed header names to column positions. The first
// occurrence of a duplicated header wins.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

// Options controls how a file is read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// XLSX sheet selection; SheetName wins over the 1-based SheetIndex.
	SheetName  string
	SheetIndex int
}

// Reader reads one tabular file format.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadTable selects a reader by file name and loads the whole table.
func ReadTable(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

func padRow(rec []string, n int) []string {
	row := make([]string, n)
	copy(row, rec)
	return row
}
