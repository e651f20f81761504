// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/refmerge/internal/catalog"
	"github.com/pdiddy/refmerge/internal/table"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the record catalog (ingest, search, export)",
	Long: `Catalog keeps merged bibliographic rows in a SQLite database with
full-text search. Ingest is idempotent: a row's identity is the hash of
its full column content, so re-ingesting a merged CSV adds nothing.`,
}

// --- ingest subcommand ---

var catalogIngestCmd = &cobra.Command{
	Use:   "ingest [csv-files...]",
	Short: "Ingest merged CSV rows into the catalog",
	RunE:  runCatalogIngest,
}

func runCatalogIngest(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{transcodeConfig(cmd).MergedCSV}
	}

	store, err := catalog.NewStore(catalogConfig(cmd), std)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := uuid.NewString()
	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		rows, err := table.ReadCSV(f, std)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := store.Ingest(context.Background(), rows, runID, os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog with full-text search and filters",
	RunE:  runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}

	opts := catalog.QueryOptions{Query: strings.Join(args, " ")}
	opts.RefType, _ = cmd.Flags().GetString("type")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")
	if opts.IsEmpty() {
		return fmt.Errorf("provide a search query or a --type filter")
	}

	store, err := catalog.NewStore(catalogConfig(cmd), std)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No records found.")
		return nil
	}
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-6s  %-60s  %s\n", r.RefType, title, r.ID[:12])
	}
	fmt.Printf("\n%d record(s)\n", len(results))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(catalogConfig(cmd), std)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts catalog.QueryOptions
	opts.RefType, _ = cmd.Flags().GetString("type")

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.json")
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	return nil
}

func init() {
	catalogIngestCmd.Flags().String("catalog-dir", "", "directory holding the catalog database")
	catalogIngestCmd.Flags().String("title-tag", "", "tag code used as the catalog title")
	catalogIngestCmd.Flags().String("merged-csv", "", "merged CSV ingested when no files are given")

	catalogSearchCmd.Flags().String("catalog-dir", "", "directory holding the catalog database")
	catalogSearchCmd.Flags().String("type", "", "filter by type-of-reference value (e.g. JOUR)")
	catalogSearchCmd.Flags().Int("max-results", 0, "maximum number of results")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	catalogExportCmd.Flags().String("catalog-dir", "", "directory holding the catalog database")
	catalogExportCmd.Flags().String("type", "", "filter by type-of-reference value")
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogCmd.AddCommand(catalogIngestCmd, catalogSearchCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}
