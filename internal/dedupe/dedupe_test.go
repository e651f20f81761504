package dedupe

import (
	"bytes"
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

func testStandards(t *testing.T) *standards.Standards {
	t.Helper()
	std, err := standards.Load(strings.NewReader(standardsTable), types.StandardsConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return std
}

func row(ty, au, kw, t1 string) types.Row {
	return types.Row{"TY": ty, "AU": au, "KW": kw, "T1": t1, "ER": ""}
}

func TestDedupeRemovesExactDuplicates(t *testing.T) {
	std := testStandards(t)
	rows := []types.Row{
		row("JOUR", "Doe, John", "quantum", "Paper A"),
		row("JOUR", "Smith, Jane", "optics", "Paper B"),
		row("JOUR", "Doe, John", "quantum", "Paper A"),
	}

	kept, removed := Dedupe(rows, std)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0]["T1"] != "Paper A" || kept[1]["T1"] != "Paper B" {
		t.Errorf("first occurrences out of order: %v, %v", kept[0]["T1"], kept[1]["T1"])
	}
}

func TestDedupeStable(t *testing.T) {
	std := testStandards(t)
	rows := []types.Row{
		row("JOUR", "", "", "C"),
		row("JOUR", "", "", "A"),
		row("JOUR", "", "", "C"),
		row("JOUR", "", "", "B"),
		row("JOUR", "", "", "A"),
	}

	kept, removed := Dedupe(rows, std)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	got := make([]string, len(kept))
	for i, r := range kept {
		got[i] = r["T1"]
	}
	if strings.Join(got, "") != "CAB" {
		t.Errorf("order = %v, want C A B", got)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	std := testStandards(t)
	rows := []types.Row{
		row("JOUR", "Doe, John", "quantum", "Paper A"),
		row("JOUR", "Doe, John", "quantum", "Paper A"),
		row("BOOK", "", "", "Paper B"),
	}

	once, _ := Dedupe(rows, std)
	twice, removed := Dedupe(once, std)
	if removed != 0 {
		t.Errorf("second pass removed = %d, want 0", removed)
	}
	if len(twice) != len(once) {
		t.Errorf("len changed across passes: %d then %d", len(once), len(twice))
	}
}

func TestDedupeKeepsNearDuplicates(t *testing.T) {
	std := testStandards(t)

	// Equality is exact per column: whitespace, case, and value-order
	// differences all make distinct rows.
	rows := []types.Row{
		row("JOUR", "Doe, John", "quantum", "Paper A"),
		row("JOUR", "Doe, John", "quantum", "paper a"),
		row("JOUR", "Doe, John", "quantum", "Paper A "),
		row("JOUR", "Doe, John;Smith, Jane", "quantum", "Paper A"),
		row("JOUR", "Smith, Jane;Doe, John", "quantum", "Paper A"),
	}

	kept, removed := Dedupe(rows, std)
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if len(kept) != 5 {
		t.Errorf("len(kept) = %d, want 5", len(kept))
	}
}

func TestDedupeMergeScenario(t *testing.T) {
	std := testStandards(t)

	// Two per-file sequences, one row shared between them: the merge
	// keeps exactly one copy at the first occurrence's position.
	fileA := []types.Row{
		row("JOUR", "Doe, John", "quantum", "Shared"),
		row("JOUR", "Doe, John", "quantum;entanglement", "Shared"),
	}
	fileB := []types.Row{
		row("BOOK", "Smith, Jane", "", "Only B"),
		row("JOUR", "Doe, John", "quantum", "Shared"),
	}

	combined := append(append([]types.Row{}, fileA...), fileB...)
	kept, removed := Dedupe(combined, std)

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(kept) != 3 {
		t.Fatalf("len(kept) = %d, want 3", len(kept))
	}
	// Rows differing only in one KW value are distinct records, not a
	// field-wise union.
	if kept[0]["KW"] == kept[1]["KW"] {
		t.Error("distinct KW rows should both survive")
	}
	if kept[0]["T1"] != "Shared" {
		t.Errorf("first occurrence should keep its position, got %q", kept[0]["T1"])
	}
}

func TestDedupeDoesNotMutateInput(t *testing.T) {
	std := testStandards(t)
	rows := []types.Row{
		row("JOUR", "", "", "A"),
		row("JOUR", "", "", "A"),
	}

	Dedupe(rows, std)
	if len(rows) != 2 {
		t.Errorf("input length changed to %d", len(rows))
	}
}
