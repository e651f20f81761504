// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refmerge/internal/catalog"
	"github.com/pdiddy/refmerge/internal/pipeline"
	"github.com/pdiddy/refmerge/internal/table"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full convert, merge, and dedupe batch",
	Long: `Run converts every *.ris file in the RIS directory to a per-source CSV,
merges all rows, removes exact duplicates, and writes the merged CSV, the
merged RIS, and a YAML run report with the parse and dedupe counts. With
--catalog the merged rows are also ingested into the record catalog.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}
	cfg := transcodeConfig(cmd)

	sum, err := pipeline.New(cfg, std).Run(os.Stdout)
	if err != nil {
		return err
	}

	useCatalog, _ := cmd.Flags().GetBool("catalog")
	if !useCatalog {
		return nil
	}

	store, err := catalog.NewStore(catalogConfig(cmd), std)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(cfg.MergedCSV)
	if err != nil {
		return fmt.Errorf("opening merged CSV: %w", err)
	}
	rows, err := table.ReadCSV(f, std)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading merged CSV: %w", err)
	}

	ctx := context.Background()
	if _, err := store.Ingest(ctx, rows, sum.RunID, os.Stdout); err != nil {
		return err
	}
	return store.RecordRun(ctx, catalog.RunInfo{
		ID:         sum.RunID,
		Started:    sum.Started,
		Sources:    len(sum.Sources),
		Failed:     sum.Failed,
		Parsed:     sum.Parsed,
		Dropped:    sum.Dropped,
		Merged:     sum.Rows,
		Unique:     sum.Unique,
		Duplicates: sum.Duplicates,
	})
}

func init() {
	runCmd.Flags().String("ris-dir", "", "directory scanned for *.ris input files")
	runCmd.Flags().String("csv-dir", "", "directory for per-source CSV output")
	runCmd.Flags().String("merged-csv", "", "destination for the merged CSV")
	runCmd.Flags().String("merged-ris", "", "destination for the merged RIS")
	runCmd.Flags().String("report", "", "destination for the YAML run report")
	runCmd.Flags().String("newline", "", "line-break policy for RIS values: strip, drop, or fail")
	runCmd.Flags().Bool("strict", false, "fail on an unterminated record instead of discarding it")
	runCmd.Flags().Bool("catalog", false, "ingest merged rows into the record catalog")
	runCmd.Flags().String("catalog-dir", "", "directory holding the catalog database")
	runCmd.Flags().String("title-tag", "", "tag code used as the catalog title")

	rootCmd.AddCommand(runCmd)
}
