// Package table projects records to and from their tabular form: one row
// per record, one column per tag code in standards order, multi-valued
// tags joined with ValueDelimiter.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

// ValueDelimiter joins the values of a multi-valued tag within one cell.
// The join is lossless as long as no individual value contains the
// delimiter character; values that do are not corrected.
const ValueDelimiter = ";"

// ToRows flattens records into rows. Each row has one cell per tag code in
// the standards, missing tags as empty strings and the terminator always
// empty. Tags outside the standards do not project; they exist only on the
// Record.
func ToRows(records []types.Record, std *standards.Standards) []types.Row {
	rows := make([]types.Row, len(records))
	terminator := std.Terminator()
	for i := range records {
		row := make(types.Row, len(std.Definitions()))
		for _, def := range std.Definitions() {
			if def.Code == terminator {
				row[def.Code] = ""
				continue
			}
			row[def.Code] = strings.Join(records[i].Get(def.Code), ValueDelimiter)
		}
		rows[i] = row
	}
	return rows
}

// FromRows is the inverse of ToRows: cells of multi-valued tags split on
// ValueDelimiter, single-valued cells become one-element value lists, and
// empty cells yield no field at all. Every reconstituted record opens with
// the first tag and closes with the empty terminator.
func FromRows(rows []types.Row, std *standards.Standards) []types.Record {
	records := make([]types.Record, len(rows))
	first := std.FirstTag()
	terminator := std.Terminator()

	for i, row := range rows {
		var rec types.Record
		if v := row[first]; v != "" {
			rec.Set(first, v)
		}
		for _, def := range std.Definitions() {
			if def.Code == first || def.Code == terminator {
				continue
			}
			cell := row[def.Code]
			if cell == "" {
				continue
			}
			if def.MultiValued {
				for _, v := range strings.Split(cell, ValueDelimiter) {
					if v != "" {
						rec.Append(def.Code, v)
					}
				}
			} else {
				rec.Set(def.Code, cell)
			}
		}
		rec.Terminate(terminator)
		records[i] = rec
	}
	return records
}

// WriteCSV encodes rows as CSV on w: a header of tag codes in standards
// order, then one line per row in the same column order.
func WriteCSV(w io.Writer, rows []types.Row, std *standards.Standards) error {
	cols := std.Columns()
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	line := make([]string, len(cols))
	for _, row := range rows {
		for i, code := range cols {
			line[i] = row[code]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes rows from CSV on r, validating that the header is
// exactly the standards' column list.
func ReadCSV(r io.Reader, std *standards.Standards) ([]types.Row, error) {
	cols := std.Columns()
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("reading CSV header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) != len(cols) {
		return nil, fmt.Errorf("CSV header mismatch: got %d columns, want %d", len(header), len(cols))
	}
	for i, code := range cols {
		if header[i] != code {
			return nil, fmt.Errorf("CSV header mismatch: column %d is %q, want %q", i+1, header[i], code)
		}
	}

	var rows []types.Row
	for {
		line, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		row := make(types.Row, len(cols))
		for i, code := range cols {
			row[code] = line[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
