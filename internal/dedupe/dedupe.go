// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe removes exact-duplicate rows from a merged row sequence.
//
// Equality is exact string equality per column, terminator column included.
// Rows differing only in whitespace, case, or value order are distinct on
// purpose: near-duplicate reconciliation is a different feature, not a
// byproduct of the merge.
package dedupe

import (
	"strings"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

// Dedupe returns rows with every later duplicate of an earlier row removed,
// along with the number removed. The first occurrence keeps its position,
// so the result is stable and Dedupe is idempotent. The input is not
// modified.
func Dedupe(rows []types.Row, std *standards.Standards) ([]types.Row, int) {
	cols := std.Columns()
	seen := make(map[string]struct{}, len(rows))
	kept := make([]types.Row, 0, len(rows))
	removed := 0

	for _, row := range rows {
		k := rowKey(row, cols)
		if _, ok := seen[k]; ok {
			removed++
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	return kept, removed
}

// rowKey concatenates the cells in column order with a unit separator,
// which cannot occur in values of a line-based format.
func rowKey(row types.Row, cols []string) string {
	var b strings.Builder
	for i, code := range cols {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(row[code])
	}
	return b.String()
}
