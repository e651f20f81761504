// Package pipeline wires the transcoding stages into the convert, merge,
// and batch-run operations: parse RIS sources, project them to rows,
// deduplicate the combined rows, and serialize the survivors back to CSV
// and RIS.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/refmerge/internal/dedupe"
	"github.com/pdiddy/refmerge/internal/ris"
	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/internal/table"
	"github.com/pdiddy/refmerge/pkg/types"
)

// Pipeline runs the transcoding stages over one configuration. It holds no
// mutable state between operations; the standards table is read-only after
// load.
type Pipeline struct {
	cfg types.TranscodeConfig
	std *standards.Standards
}

// New returns a Pipeline over cfg and a loaded standards table.
func New(cfg types.TranscodeConfig, std *standards.Standards) *Pipeline {
	return &Pipeline{cfg: cfg, std: std}
}

// ConvertSummary holds counts from converting one RIS source.
type ConvertSummary struct {
	Source  string
	Parsed  int
	Dropped int
}

// ConvertFile parses the RIS file at risPath and writes its tabular
// projection to csvPath. It returns the projected rows so a batch run can
// merge them without re-reading the CSV.
func (p *Pipeline) ConvertFile(risPath, csvPath string, w io.Writer) ([]types.Row, ConvertSummary, error) {
	sum := ConvertSummary{Source: risPath}

	data, err := os.ReadFile(risPath)
	if err != nil {
		return nil, sum, fmt.Errorf("reading %s: %w", risPath, err)
	}

	records, stats, err := ris.Parse(string(data), p.std, ris.Options{Strict: p.cfg.Strict}, w)
	if err != nil {
		return nil, sum, fmt.Errorf("parsing %s: %w", risPath, err)
	}
	sum.Parsed = stats.Parsed
	sum.Dropped = stats.Dropped

	rows := table.ToRows(records, p.std)

	f, err := os.Create(csvPath)
	if err != nil {
		return nil, sum, fmt.Errorf("creating %s: %w", csvPath, err)
	}
	if err := table.WriteCSV(f, rows, p.std); err != nil {
		f.Close()
		return nil, sum, fmt.Errorf("writing %s: %w", csvPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, sum, fmt.Errorf("closing %s: %w", csvPath, err)
	}

	fmt.Fprintf(w, "converted: %s (%d records", filepath.Base(risPath), sum.Parsed)
	if sum.Dropped > 0 {
		fmt.Fprintf(w, ", %d dropped", sum.Dropped)
	}
	fmt.Fprintln(w, ")")

	return rows, sum, nil
}

// MergeSummary holds counts from one merge.
type MergeSummary struct {
	Sources    int
	Rows       int
	Unique     int
	Duplicates int
	Write      ris.WriteStats
}

// Merge reads previously converted per-source CSVs, concatenates their
// rows in path order, deduplicates, and writes the merged CSV and merged
// RIS outputs.
func (p *Pipeline) Merge(csvPaths []string, w io.Writer) (MergeSummary, error) {
	var all []types.Row
	sum := MergeSummary{Sources: len(csvPaths)}

	for _, path := range csvPaths {
		f, err := os.Open(path)
		if err != nil {
			return sum, fmt.Errorf("opening %s: %w", path, err)
		}
		rows, err := table.ReadCSV(f, p.std)
		f.Close()
		if err != nil {
			return sum, fmt.Errorf("reading %s: %w", path, err)
		}
		all = append(all, rows...)
	}

	return p.mergeRows(all, &sum, w)
}

// mergeRows deduplicates the combined rows and writes the merged outputs.
func (p *Pipeline) mergeRows(all []types.Row, sum *MergeSummary, w io.Writer) (MergeSummary, error) {
	sum.Rows = len(all)

	unique, removed := dedupe.Dedupe(all, p.std)
	sum.Unique = len(unique)
	sum.Duplicates = removed

	if err := writeFile(p.cfg.MergedCSV, func(f io.Writer) error {
		return table.WriteCSV(f, unique, p.std)
	}); err != nil {
		return *sum, fmt.Errorf("writing merged CSV: %w", err)
	}

	records := table.FromRows(unique, p.std)
	var wstats ris.WriteStats
	if err := writeFile(p.cfg.MergedRIS, func(f io.Writer) error {
		var err error
		wstats, err = ris.Write(f, records, p.std, p.cfg.Newline)
		return err
	}); err != nil {
		return *sum, fmt.Errorf("writing merged RIS: %w", err)
	}
	sum.Write = wstats

	fmt.Fprintf(w, "merged %d rows from %d sources: %d unique, %d duplicates removed\n",
		sum.Rows, sum.Sources, sum.Unique, sum.Duplicates)

	return *sum, nil
}

// RunSummary holds the counts of one batch run over the input directory.
type RunSummary struct {
	RunID      string
	Started    time.Time
	Sources    []string
	Failed     int
	Parsed     int
	Dropped    int
	Rows       int
	Unique     int
	Duplicates int
	Write      ris.WriteStats
}

// Run converts every *.ris file under the configured input directory to a
// per-source CSV, merges all projected rows, deduplicates, and writes the
// merged CSV and RIS outputs plus the YAML run report. Unreadable sources
// are warned about and skipped; in strict mode a malformed source aborts
// the run.
func (p *Pipeline) Run(w io.Writer) (RunSummary, error) {
	sum := RunSummary{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}

	matches, err := filepath.Glob(filepath.Join(p.cfg.RISDir, "*.ris"))
	if err != nil {
		return sum, fmt.Errorf("scanning %s: %w", p.cfg.RISDir, err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return sum, fmt.Errorf("no RIS files found in %s", p.cfg.RISDir)
	}

	if err := os.MkdirAll(p.cfg.CSVDir, 0o755); err != nil {
		return sum, fmt.Errorf("creating CSV directory: %w", err)
	}

	var all []types.Row
	for _, risPath := range matches {
		stem := strings.TrimSuffix(filepath.Base(risPath), filepath.Ext(risPath))
		csvPath := filepath.Join(p.cfg.CSVDir, stem+".csv")

		rows, cs, err := p.ConvertFile(risPath, csvPath, w)
		if err != nil {
			var perr *ris.ParseError
			if errors.As(err, &perr) {
				return sum, err
			}
			fmt.Fprintf(w, "failed: %s (%v)\n", filepath.Base(risPath), err)
			sum.Failed++
			continue
		}

		sum.Sources = append(sum.Sources, risPath)
		sum.Parsed += cs.Parsed
		sum.Dropped += cs.Dropped
		all = append(all, rows...)
	}

	ms := MergeSummary{Sources: len(sum.Sources)}
	if _, err := p.mergeRows(all, &ms, w); err != nil {
		return sum, err
	}
	sum.Rows = ms.Rows
	sum.Unique = ms.Unique
	sum.Duplicates = ms.Duplicates
	sum.Write = ms.Write

	fmt.Fprintf(w, "\nrun %s: %d sources, %d failed, %d records parsed, %d dropped, %d unique rows\n",
		sum.RunID, len(sum.Sources), sum.Failed, sum.Parsed, sum.Dropped, sum.Unique)

	if p.cfg.ReportPath != "" {
		if err := WriteReport(p.cfg.ReportPath, sum, p.cfg); err != nil {
			fmt.Fprintf(w, "warning: run report write failed: %v\n", err)
		}
	}

	return sum, nil
}

// writeFile creates path (and its parent directory) and streams content
// through write, closing the file on the way out.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
