package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refmerge/internal/pipeline"
)

var convertCmd = &cobra.Command{
	Use:   "convert [ris-files...]",
	Short: "Convert RIS files to per-source CSV",
	Long: `Convert parses each RIS file and writes its tabular projection as a CSV
file in the CSV directory: one row per record, one column per tag in
standards order, multi-valued tags joined with ";". With no arguments it
converts every *.ris file in the RIS directory.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}
	cfg := transcodeConfig(cmd)
	p := pipeline.New(cfg, std)

	inputs := args
	if len(inputs) == 0 {
		inputs, err = filepath.Glob(filepath.Join(cfg.RISDir, "*.ris"))
		if err != nil {
			return fmt.Errorf("scanning %s: %w", cfg.RISDir, err)
		}
		sort.Strings(inputs)
		if len(inputs) == 0 {
			return fmt.Errorf("no RIS files found in %s", cfg.RISDir)
		}
	}

	if err := os.MkdirAll(cfg.CSVDir, 0o755); err != nil {
		return fmt.Errorf("creating CSV directory: %w", err)
	}

	failed := 0
	for _, risPath := range inputs {
		stem := strings.TrimSuffix(filepath.Base(risPath), filepath.Ext(risPath))
		csvPath := filepath.Join(cfg.CSVDir, stem+".csv")

		if _, _, err := p.ConvertFile(risPath, csvPath, os.Stdout); err != nil {
			if cfg.Strict {
				return err
			}
			fmt.Fprintf(os.Stdout, "failed: %s (%v)\n", filepath.Base(risPath), err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed conversion", failed)
	}
	return nil
}

func init() {
	convertCmd.Flags().String("ris-dir", "", "directory scanned for *.ris input files")
	convertCmd.Flags().String("csv-dir", "", "directory for per-source CSV output")
	convertCmd.Flags().Bool("strict", false, "fail on an unterminated record instead of discarding it")

	rootCmd.AddCommand(convertCmd)
}
