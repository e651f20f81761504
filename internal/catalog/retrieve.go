// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/refmerge/pkg/types"
)

// QueryOptions holds parameters for catalog searches.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// RefType filters by the type-of-reference value (e.g. "JOUR").
	RefType string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.RefType == ""
}

// Result is one cataloged record.
type Result struct {
	ID       string    `json:"id" yaml:"id"`
	RefType  string    `json:"ref_type" yaml:"ref_type"`
	Title    string    `json:"title" yaml:"title"`
	Fields   types.Row `json:"fields" yaml:"fields"`
	FirstRun string    `json:"first_run,omitempty" yaml:"first_run,omitempty"`
}

// Retrieve searches the catalog with optional full-text search and a
// reference-type filter. Full-text queries come back ranked by relevance;
// filter-only queries come back sorted by title.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.ref_type, r.title, r.fields, r.first_run
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.ref_type, r.title, r.fields, r.first_run
			FROM records r
			WHERE 1=1`)
	}

	if opts.RefType != "" {
		qb.WriteString(` AND r.ref_type = ?`)
		args = append(args, opts.RefType)
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.title, r.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			res        Result
			fieldsJSON string
			firstRun   *string
		)
		if err := rows.Scan(&res.ID, &res.RefType, &res.Title, &fieldsJSON, &firstRun); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &res.Fields); err != nil {
			return nil, fmt.Errorf("parsing stored fields: %w", err)
		}
		if firstRun != nil {
			res.FirstRun = *firstRun
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Count returns the number of cataloged records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
