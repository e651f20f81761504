// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists merged bibliographic rows in a SQLite database
// with full-text search, so merge runs accumulate into a searchable record
// catalog instead of a pile of output files.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

const (
	dbFile          = "catalog.db"
	defaultTitleTag = "T1"
)

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	std        *standards.Standards
	catalogDir string
	titleTag   string
	maxResults int
}

// NewStore opens or creates the catalog database at
// catalogDir/catalog.db, creating the schema if it does not exist.
func NewStore(cfg types.CatalogConfig, std *standards.Standards) (*Store, error) {
	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CatalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	titleTag := cfg.TitleTag
	if titleTag == "" {
		titleTag = defaultTitleTag
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		std:        std,
		catalogDir: cfg.CatalogDir,
		titleTag:   titleTag,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			ref_type TEXT,
			title TEXT,
			fields TEXT NOT NULL,
			content TEXT NOT NULL,
			first_run TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_ref_type ON records(ref_type)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT,
			sources INTEGER,
			failed INTEGER,
			parsed INTEGER,
			dropped INTEGER,
			merged INTEGER,
			unique_rows INTEGER,
			duplicates INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(content, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from one catalog ingest.
type IngestSummary struct {
	Inserted int
	Skipped  int
}

// Total returns the number of rows processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Skipped
}

// Ingest stores rows in the catalog. A row's identity is the hash of its
// full column content, the same identity the deduplicator uses, so
// re-ingesting a merged output is idempotent: already-cataloged rows are
// skipped.
func (s *Store) Ingest(ctx context.Context, rows []types.Row, runID string, w io.Writer) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO records (id, ref_type, title, fields, content, first_run)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary
	cols := s.std.Columns()

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		fieldsJSON, err := json.Marshal(row)
		if err != nil {
			return summary, fmt.Errorf("marshaling row: %w", err)
		}

		res, err := stmt.ExecContext(ctx,
			RowID(row, cols),
			row[s.std.FirstTag()],
			row[s.titleTag],
			string(fieldsJSON),
			searchContent(row, cols),
			runID,
		)
		if err != nil {
			return summary, fmt.Errorf("inserting record: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return summary, fmt.Errorf("checking insert: %w", err)
		}
		if n == 0 {
			summary.Skipped++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "cataloged %d rows: %d inserted, %d already present\n",
		summary.Total(), summary.Inserted, summary.Skipped)
	return summary, nil
}

// RunInfo is the run summary stored alongside cataloged records.
type RunInfo struct {
	ID         string
	Started    time.Time
	Sources    int
	Failed     int
	Parsed     int
	Dropped    int
	Merged     int
	Unique     int
	Duplicates int
}

// RecordRun stores the summary of one pipeline run.
func (s *Store) RecordRun(ctx context.Context, run RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started, sources, failed, parsed, dropped, merged, unique_rows, duplicates)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		run.ID, run.Started.UTC().Format(time.RFC3339), run.Sources, run.Failed,
		run.Parsed, run.Dropped, run.Merged, run.Unique, run.Duplicates,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// RowID returns the content-hash identity of a row over the given column
// order.
func RowID(row types.Row, cols []string) string {
	h := sha256.New()
	for i, code := range cols {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(row[code]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// searchContent flattens the row's non-empty cells into one space-joined
// string for full-text indexing.
func searchContent(row types.Row, cols []string) string {
	var parts []string
	for _, code := range cols {
		if v := row[code]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
