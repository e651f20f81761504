// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package standards loads the tag-standards table that drives parsing,
// tabular projection, and serialization of RIS records.
package standards

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/refmerge/pkg/types"
)

// Defaults used when the corresponding StandardsConfig fields are empty.
const (
	DefaultFirstTag         = "TY"
	DefaultTerminator       = "ER"
	DefaultMultiValueMarker = "separate line"
)

// SchemaError reports a malformed or incomplete tag-standards table. It is
// fatal for a run: every downstream stage depends on a valid schema.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "tag standards: " + e.Reason
}

// Standards is the validated, order-sorted tag table.
type Standards struct {
	defs       []types.TagDefinition
	byCode     map[string]types.TagDefinition
	firstTag   string
	terminator string
}

// LoadFile reads the tag-standards CSV at path. See Load.
func LoadFile(path string, cfg types.StandardsConfig, w io.Writer) (*Standards, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening standards file: %w", err)
	}
	defer f.Close()
	return Load(f, cfg, w)
}

// Load reads a tag-standards table from r. The table is CSV with columns
// [code, label, order, notes] and no header. Rows with a blank code, fewer
// than three columns, or a non-integer order are skipped with a warning on
// w, mirroring the tolerant reader the table format grew up with. A tag is
// multi-valued when its notes contain the configured marker substring;
// ambiguous notes default to single-valued.
//
// Load fails with a SchemaError when the first tag or terminator is absent,
// a code appears twice, or two tags share an order.
func Load(r io.Reader, cfg types.StandardsConfig, w io.Writer) (*Standards, error) {
	firstTag := cfg.FirstTag
	if firstTag == "" {
		firstTag = DefaultFirstTag
	}
	terminator := cfg.Terminator
	if terminator == "" {
		terminator = DefaultTerminator
	}
	marker := cfg.MultiValueMarker
	if marker == "" {
		marker = DefaultMultiValueMarker
	}
	marker = strings.ToLower(marker)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	s := &Standards{
		byCode:     make(map[string]types.TagDefinition),
		firstTag:   firstTag,
		terminator: terminator,
	}
	orders := make(map[int]string)

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading standards row %d: %w", line, err)
		}

		if len(row) < 3 || strings.TrimSpace(row[0]) == "" {
			fmt.Fprintf(w, "warning: skipping standards row %d: %v\n", line, row)
			continue
		}

		code := strings.TrimSpace(row[0])
		if line == 1 {
			// Byte order mark from spreadsheet exports.
			code = strings.TrimPrefix(code, "\ufeff")
		}

		order, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			fmt.Fprintf(w, "warning: skipping standards row %d: order %q is not an integer\n", line, row[2])
			continue
		}

		notes := ""
		if len(row) > 3 {
			notes = row[3]
		}

		def := types.TagDefinition{
			Code:        code,
			Label:       strings.TrimSpace(row[1]),
			Order:       order,
			Notes:       notes,
			MultiValued: strings.Contains(strings.ToLower(notes), marker),
		}

		if _, ok := s.byCode[code]; ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("duplicate code %q", code)}
		}
		if prev, ok := orders[order]; ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("tags %q and %q share order %d", prev, code, order)}
		}

		s.byCode[code] = def
		orders[order] = code
		s.defs = append(s.defs, def)
	}

	if _, ok := s.byCode[firstTag]; !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("first tag %q not defined", firstTag)}
	}
	if _, ok := s.byCode[terminator]; !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("terminator %q not defined", terminator)}
	}

	sort.Slice(s.defs, func(i, j int) bool { return s.defs[i].Order < s.defs[j].Order })

	return s, nil
}

// Definitions returns the tag definitions in ascending order.
func (s *Standards) Definitions() []types.TagDefinition {
	return s.defs
}

// Columns returns the tag codes in ascending order. This is the column
// order of the tabular projection, terminator included.
func (s *Standards) Columns() []string {
	cols := make([]string, len(s.defs))
	for i, d := range s.defs {
		cols[i] = d.Code
	}
	return cols
}

// Known reports whether code appears in the table.
func (s *Standards) Known(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// MultiValued reports whether code is a multi-valued tag. Unknown codes are
// multi-valued so that pass-through tags never lose repeated values.
func (s *Standards) MultiValued(code string) bool {
	def, ok := s.byCode[code]
	if !ok {
		return true
	}
	return def.MultiValued
}

// Label returns the label for code, or the empty string for unknown codes.
func (s *Standards) Label(code string) string {
	return s.byCode[code].Label
}

// FirstTag returns the code of the type-of-reference tag that opens every
// record.
func (s *Standards) FirstTag() string {
	return s.firstTag
}

// Terminator returns the code of the empty tag that closes every record.
func (s *Standards) Terminator() string {
	return s.terminator
}
