// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refmerge/pkg/types"
)

// RunReport is the on-disk record of one batch run. It makes the data loss
// from deduplication and discarded records observable after the fact.
type RunReport struct {
	RunID   string        `yaml:"run_id"`
	Started time.Time     `yaml:"started"`
	Inputs  []string      `yaml:"inputs"`
	Outputs ReportOutputs `yaml:"outputs"`
	Summary ReportSummary `yaml:"summary"`
}

// ReportOutputs lists the merged output paths of the run.
type ReportOutputs struct {
	MergedCSV string `yaml:"merged_csv"`
	MergedRIS string `yaml:"merged_ris"`
}

// ReportSummary holds the run counts.
type ReportSummary struct {
	SourcesFailed     int `yaml:"sources_failed,omitempty"`
	RecordsParsed     int `yaml:"records_parsed"`
	RecordsDropped    int `yaml:"records_dropped"`
	RowsMerged        int `yaml:"rows_merged"`
	RowsUnique        int `yaml:"rows_unique"`
	DuplicatesRemoved int `yaml:"duplicates_removed"`
	ValuesStripped    int `yaml:"values_stripped,omitempty"`
	ValuesDropped     int `yaml:"values_dropped,omitempty"`
}

// WriteReport saves the run summary as YAML at path.
func WriteReport(path string, sum RunSummary, cfg types.TranscodeConfig) error {
	report := RunReport{
		RunID:   sum.RunID,
		Started: sum.Started,
		Inputs:  sum.Sources,
		Outputs: ReportOutputs{
			MergedCSV: cfg.MergedCSV,
			MergedRIS: cfg.MergedRIS,
		},
		Summary: ReportSummary{
			SourcesFailed:     sum.Failed,
			RecordsParsed:     sum.Parsed,
			RecordsDropped:    sum.Dropped,
			RowsMerged:        sum.Rows,
			RowsUnique:        sum.Unique,
			DuplicatesRemoved: sum.Duplicates,
			ValuesStripped:    sum.Write.Stripped,
			ValuesDropped:     sum.Write.Dropped,
		},
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written run report from disk.
func ReadReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var report RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &report, nil
}
