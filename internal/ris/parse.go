// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ris parses and serializes the RIS tag-based text format: lines of
// the form "AU  - Doe, John", one record per terminator line.
package ris

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

// tagLine matches a RIS tag line: a 2-4 character code, the hyphen
// separator, and the (possibly empty) value. Padding around the hyphen is
// accepted loosely; real exports disagree on it.
var tagLine = regexp.MustCompile(`^([A-Z][A-Z0-9]{1,3})\s*-\s*(.*)$`)

// Options controls parser policies.
type Options struct {
	// Strict makes an unterminated record at the first tag or at end of
	// input a ParseError instead of a warning-and-discard.
	Strict bool
}

// Stats holds counts from one Parse call.
type Stats struct {
	// Parsed is the number of terminated records returned.
	Parsed int
	// Dropped is the number of unterminated records discarded.
	Dropped int
}

// ParseError reports a malformed record in strict mode.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ris: line %d: %s", e.Line, e.Reason)
}

// Parse scans text in a single pass and returns the terminated records in
// input order. A first-tag line opens a record, a terminator line closes
// it. Tags absent from the standards pass through on the record keyed by
// their raw code, so unknown data survives a round trip; repeated
// multi-valued (and unknown) tags accumulate values in file order, repeated
// single-valued tags keep the last occurrence. Lines that are not tag lines
// and values that are empty (terminator aside) are ignored.
//
// A record left open when the next record starts or the input ends is
// discarded with a warning on w, or returned as a ParseError when
// opts.Strict is set.
func Parse(text string, std *standards.Standards, opts Options, w io.Writer) ([]types.Record, Stats, error) {
	var (
		records  []types.Record
		stats    Stats
		cur      *types.Record
		curStart int
	)

	first := std.FirstTag()
	terminator := std.Terminator()

	discard := func() error {
		if opts.Strict {
			return &ParseError{
				Line:   curStart,
				Reason: fmt.Sprintf("record has no %s terminator", terminator),
			}
		}
		fmt.Fprintf(w, "warning: discarding unterminated record at line %d\n", curStart)
		stats.Dropped++
		return nil
	}

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := tagLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code, value := m[1], strings.TrimSpace(m[2])

		switch {
		case code == terminator:
			if cur == nil {
				continue
			}
			cur.Terminate(terminator)
			records = append(records, *cur)
			stats.Parsed++
			cur = nil

		case code == first:
			if cur != nil {
				if err := discard(); err != nil {
					return records, stats, err
				}
			}
			cur = &types.Record{}
			cur.Set(first, value)
			curStart = lineNo

		default:
			if cur == nil || value == "" {
				continue
			}
			if std.MultiValued(code) {
				cur.Append(code, value)
			} else {
				cur.Set(code, value)
			}
		}
	}

	if cur != nil {
		if err := discard(); err != nil {
			return records, stats, err
		}
	}

	return records, stats, nil
}
