// Package ratesheet loads the distributor's bulk rate sheet: one row per
// product code with up to four rate columns (A-D).
package ratesheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minhanee-art/kingtire/internal/pricing"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html/charset"
)

// Row holds the rate columns for one code. A nil column is empty in the sheet.
type Row struct {
	A, B, C, D *float64
}

// Column returns the named column ("A".."D", case-insensitive).
func (r Row) Column(name string) *float64 {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "A":
		return r.A
	case "B":
		return r.B
	case "C":
		return r.C
	case "D":
		return r.D
	}
	return nil
}

// Table is read-only after Load.
type Table struct {
	rows map[string]Row
}

// Lookup matches code exactly. Safe on a nil table.
func (t *Table) Lookup(code string) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	r, ok := t.rows[code]
	return r, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Load reads a sheet whose first row is a header and whose columns are
// code, A, B, C, D. .xlsx files use the first worksheet; anything else is
// read as CSV in charsetLabel ("" means UTF-8).
func Load(path, charsetLabel string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rate sheet: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, charsetLabel)
}

// ReadCSV parses CSV rate sheet data.
func ReadCSV(r io.Reader, charsetLabel string) (*Table, error) {
	if charsetLabel != "" {
		dr, err := charset.NewReaderLabel(charsetLabel, r)
		if err != nil {
			return nil, fmt.Errorf("rate sheet charset %q: %w", charsetLabel, err)
		}
		r = dr
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rate sheet csv: %w", err)
		}
		records = append(records, rec)
	}
	return fromRecords(records), nil
}

func loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open rate sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{rows: map[string]Row{}}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("rate sheet rows: %w", err)
	}
	return fromRecords(records), nil
}

// fromRecords skips the header row; a later row for the same code replaces
// an earlier one.
func fromRecords(records [][]string) *Table {
	t := &Table{rows: make(map[string]Row, len(records))}
	for i, rec := range records {
		if i == 0 || len(rec) == 0 {
			continue
		}
		code := strings.TrimSpace(rec[0])
		if code == "" {
			continue
		}
		t.rows[code] = Row{A: cell(rec, 1), B: cell(rec, 2), C: cell(rec, 3), D: cell(rec, 4)}
	}
	return t
}

func cell(rec []string, i int) *float64 {
	if i >= len(rec) {
		return nil
	}
	v, ok := pricing.ParseRate(rec[i])
	if !ok {
		return nil
	}
	return &v
}
