package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refmerge/internal/pipeline"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [csv-files...]",
	Short: "Merge per-source CSVs into deduplicated CSV and RIS outputs",
	Long: `Merge concatenates the rows of previously converted CSV files, removes
rows whose full column content duplicates an earlier row (first occurrence
wins), and writes the survivors as both a merged CSV and a merged RIS
file. With no arguments it merges every *.csv file in the CSV directory,
skipping the merged output itself.`,
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}
	cfg := transcodeConfig(cmd)

	inputs := args
	if len(inputs) == 0 {
		matches, err := filepath.Glob(filepath.Join(cfg.CSVDir, "*.csv"))
		if err != nil {
			return fmt.Errorf("scanning %s: %w", cfg.CSVDir, err)
		}
		for _, m := range matches {
			if sameFile(m, cfg.MergedCSV) {
				continue
			}
			inputs = append(inputs, m)
		}
		sort.Strings(inputs)
		if len(inputs) == 0 {
			return fmt.Errorf("no CSV files found in %s", cfg.CSVDir)
		}
	}

	_, err = pipeline.New(cfg, std).Merge(inputs, os.Stdout)
	return err
}

// sameFile compares two paths after cleaning, enough to keep a previous
// merged output out of its own merge.
func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func init() {
	mergeCmd.Flags().String("csv-dir", "", "directory scanned for *.csv input files")
	mergeCmd.Flags().String("merged-csv", "", "destination for the merged CSV")
	mergeCmd.Flags().String("merged-ris", "", "destination for the merged RIS")
	mergeCmd.Flags().String("newline", "", "line-break policy for RIS values: strip, drop, or fail")

	rootCmd.AddCommand(mergeCmd)
}
