// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ris

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

const standardsTable = `TY,Type of Reference,1,first tag of each record
AU,Author,2,each author on a separate line
KW,Keyword,3,each keyword on a separate line
T1,Primary Title,4,
ER,End of Reference,5,must be last and empty`

// sampleRIS ends with a terminator line "ER  - " whose trailing space the
// writer always emits; a raw string literal would hide it.
const sampleRIS = "TY  - JOUR\n" +
	"AU  - Doe, John\n" +
	"AU  - Smith, Jane\n" +
	"KW  - Quantum computing\n" +
	"T1  - Research on Quantum Tech\n" +
	"ER  - \n"

func testStandards(t *testing.T) *standards.Standards {
	t.Helper()
	std, err := standards.Load(strings.NewReader(standardsTable), types.StandardsConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return std
}

// --- Parse ---

func TestParseSample(t *testing.T) {
	std := testStandards(t)

	var buf bytes.Buffer
	records, stats, err := Parse(sampleRIS, std, Options{}, &buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Parsed != 1 || stats.Dropped != 0 {
		t.Fatalf("stats = %+v, want 1 parsed, 0 dropped", stats)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	rec := records[0]
	want := []types.Field{
		{Code: "TY", Values: []string{"JOUR"}},
		{Code: "AU", Values: []string{"Doe, John", "Smith, Jane"}},
		{Code: "KW", Values: []string{"Quantum computing"}},
		{Code: "T1", Values: []string{"Research on Quantum Tech"}},
		{Code: "ER"},
	}
	if len(rec.Fields) != len(want) {
		t.Fatalf("len(Fields) = %d, want %d", len(rec.Fields), len(want))
	}
	for i, f := range want {
		got := rec.Fields[i]
		if got.Code != f.Code {
			t.Errorf("Fields[%d].Code = %q, want %q", i, got.Code, f.Code)
		}
		if strings.Join(got.Values, "|") != strings.Join(f.Values, "|") {
			t.Errorf("Fields[%d].Values = %v, want %v", i, got.Values, f.Values)
		}
	}
}

func TestParseMultipleRecords(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nT1  - First\nER  - \nTY  - BOOK\nT1  - Second\nER  - \n"

	records, stats, err := Parse(text, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Parsed != 2 {
		t.Errorf("Parsed = %d, want 2", stats.Parsed)
	}
	if got := records[1].Get("T1"); len(got) != 1 || got[0] != "Second" {
		t.Errorf("second record T1 = %v", got)
	}
}

func TestParseSingleValuedLastWins(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nT1  - Old Title\nT1  - New Title\nER  - \n"

	records, _, err := Parse(text, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := records[0].Get("T1"); len(got) != 1 || got[0] != "New Title" {
		t.Errorf("T1 = %v, want [New Title]", got)
	}
}

func TestParseUnknownTagPassesThrough(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nZZ  - mystery one\nZZ  - mystery two\nER  - \n"

	records, _, err := Parse(text, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := records[0].Get("ZZ")
	if len(got) != 2 || got[0] != "mystery one" || got[1] != "mystery two" {
		t.Errorf("ZZ = %v, want both values in order", got)
	}
}

func TestParseIgnoresNoise(t *testing.T) {
	std := testStandards(t)
	text := "garbage line\nTY  - JOUR\n\nnot a tag\nT1  - \nER  - \nER  - \n"

	records, stats, err := Parse(text, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Parsed != 1 {
		t.Fatalf("Parsed = %d, want 1", stats.Parsed)
	}
	// The empty T1 value is skipped entirely.
	if records[0].Has("T1") {
		t.Error("empty T1 value should not create a field")
	}
}

func TestParseUnterminatedDiscards(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nT1  - Complete\nER  - \nTY  - BOOK\nT1  - Dangling\n"

	var buf bytes.Buffer
	records, stats, err := Parse(text, std, Options{}, &buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || stats.Parsed != 1 {
		t.Errorf("records = %d, Parsed = %d, want 1 and 1", len(records), stats.Parsed)
	}
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
	if !strings.Contains(buf.String(), "warning: discarding unterminated record at line 4") {
		t.Errorf("missing warning, got %q", buf.String())
	}
}

func TestParseUnterminatedStrict(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nT1  - Dangling\n"

	_, _, err := Parse(text, std, Options{Strict: true}, &bytes.Buffer{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if perr.Line != 1 {
		t.Errorf("Line = %d, want 1", perr.Line)
	}
}

func TestParseUnterminatedBeforeNextRecordStrict(t *testing.T) {
	std := testStandards(t)
	text := "TY  - JOUR\nT1  - Dangling\nTY  - BOOK\nER  - \n"

	_, _, err := Parse(text, std, Options{Strict: true}, &bytes.Buffer{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

// --- Write ---

func TestWriteSample(t *testing.T) {
	std := testStandards(t)
	records, _, err := Parse(sampleRIS, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var out bytes.Buffer
	stats, err := Write(&out, records, std, types.NewlineStrip)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if stats.Written != 1 {
		t.Errorf("Written = %d, want 1", stats.Written)
	}
	if out.String() != sampleRIS {
		t.Errorf("output does not reproduce input:\ngot:\n%q\nwant:\n%q", out.String(), sampleRIS)
	}
}

func TestParseWriteRoundTrip(t *testing.T) {
	std := testStandards(t)
	records, _, err := Parse(sampleRIS, std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var out bytes.Buffer
	if _, err := Write(&out, records, std, types.NewlineStrip); err != nil {
		t.Fatalf("Write: %v", err)
	}
	again, _, err := Parse(out.String(), std, Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if len(again) != len(records) {
		t.Fatalf("len = %d, want %d", len(again), len(records))
	}
	for i := range records {
		if !records[i].Equal(&again[i]) {
			t.Errorf("record %d changed across round trip", i)
		}
	}
}

func TestWriteEmitsStandardsOrder(t *testing.T) {
	std := testStandards(t)

	// Fields deliberately out of order; the writer reorders to the table.
	var rec types.Record
	rec.Set("TY", "JOUR")
	rec.Set("T1", "A Title")
	rec.Append("AU", "Doe, John")
	rec.Terminate("ER")

	var out bytes.Buffer
	if _, err := Write(&out, []types.Record{rec}, std, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "TY  - JOUR\nAU  - Doe, John\nT1  - A Title\nER  - \n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestWritePassThroughTag(t *testing.T) {
	std := testStandards(t)

	var rec types.Record
	rec.Set("TY", "JOUR")
	rec.Append("ZZ", "mystery")
	rec.Terminate("ER")

	var out bytes.Buffer
	if _, err := Write(&out, []types.Record{rec}, std, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "TY  - JOUR\nZZ  - mystery\nER  - \n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestWriteNewlinePolicies(t *testing.T) {
	std := testStandards(t)

	newRecord := func() types.Record {
		var rec types.Record
		rec.Set("TY", "JOUR")
		rec.Set("T1", "Broken\nTitle")
		rec.Terminate("ER")
		return rec
	}

	t.Run("strip", func(t *testing.T) {
		var out bytes.Buffer
		stats, err := Write(&out, []types.Record{newRecord()}, std, types.NewlineStrip)
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if stats.Stripped != 1 {
			t.Errorf("Stripped = %d, want 1", stats.Stripped)
		}
		if !strings.Contains(out.String(), "T1  - Broken Title\n") {
			t.Errorf("value not flattened: %q", out.String())
		}
	})

	t.Run("drop", func(t *testing.T) {
		var out bytes.Buffer
		stats, err := Write(&out, []types.Record{newRecord()}, std, types.NewlineDrop)
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		if stats.Dropped != 1 {
			t.Errorf("Dropped = %d, want 1", stats.Dropped)
		}
		if strings.Contains(out.String(), "T1") {
			t.Errorf("offending value should be omitted: %q", out.String())
		}
	})

	t.Run("fail", func(t *testing.T) {
		var out bytes.Buffer
		_, err := Write(&out, []types.Record{newRecord()}, std, types.NewlineFail)
		var eerr *EncodingError
		if !errors.As(err, &eerr) {
			t.Fatalf("want EncodingError, got %v", err)
		}
		if eerr.Code != "T1" {
			t.Errorf("Code = %q, want T1", eerr.Code)
		}
	})
}

func TestWriteTerminatorAlwaysLastAndEmpty(t *testing.T) {
	std := testStandards(t)

	var rec types.Record
	rec.Set("TY", "JOUR")
	rec.Terminate("ER")
	// A malformed source could leave a tag after the terminator; the
	// writer still closes with an empty terminator line.
	rec.Fields = append(rec.Fields, types.Field{Code: "T1", Values: []string{"Late"}})

	var out bytes.Buffer
	if _, err := Write(&out, []types.Record{rec}, std, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	if last != "ER  - " {
		t.Errorf("last line = %q, want %q", last, "ER  - ")
	}
}
