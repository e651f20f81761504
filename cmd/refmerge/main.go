// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refmerge CLI. It wires the
// transcoding pipeline (RIS to CSV, deduplicating merge, CSV back to RIS)
// and the record catalog behind one command per stage.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the refmerge CLI.
var rootCmd = &cobra.Command{
	Use:   "refmerge",
	Short: "Convert, merge, and deduplicate RIS bibliographic records",
	Long: `refmerge transcodes bibliographic records between the RIS tag format and
a tabular CSV form, merges multiple sources while removing exact-duplicate
records, and converts the merged result back to RIS.

Each stage is a subcommand: fetch downloads RIS exports, convert projects
RIS files to CSV, merge deduplicates and writes the combined outputs, run
does the whole batch, and catalog keeps merged records in a searchable
SQLite database. A tag-standards table (code, label, order, notes) drives
column order and multi-value handling everywhere.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refmerge.yaml or ~/.config/refmerge/config.yaml)")
	rootCmd.PersistentFlags().String("standards", "", "tag-standards CSV file (default: RIS_stds.csv)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refmerge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refmerge"))
		}
	}

	viper.SetEnvPrefix("REFMERGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a string setting with flag over config file over
// built-in default precedence.
func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// standardsConfig assembles the standards settings for the current command.
func standardsConfig(cmd *cobra.Command) types.StandardsConfig {
	return types.StandardsConfig{
		Path:             stringSetting(cmd, "standards", "standards.path", "RIS_stds.csv"),
		FirstTag:         viper.GetString("standards.first_tag"),
		Terminator:       viper.GetString("standards.terminator"),
		MultiValueMarker: viper.GetString("standards.multi_value_marker"),
	}
}

// loadStandards loads and validates the tag-standards table. Every stage
// depends on it; a schema problem aborts the whole invocation.
func loadStandards(cmd *cobra.Command) (*standards.Standards, error) {
	cfg := standardsConfig(cmd)
	std, err := standards.LoadFile(cfg.Path, cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("loading tag standards: %w", err)
	}
	return std, nil
}

// transcodeConfig assembles the convert/merge settings for the current
// command, falling back to the config file and then to the conventional
// project layout.
func transcodeConfig(cmd *cobra.Command) types.TranscodeConfig {
	cfg := types.TranscodeConfig{
		RISDir:     stringSetting(cmd, "ris-dir", "transcode.ris_dir", "RIS"),
		CSVDir:     stringSetting(cmd, "csv-dir", "transcode.csv_dir", "CSV"),
		MergedCSV:  stringSetting(cmd, "merged-csv", "transcode.merged_csv", "merged_output.csv"),
		MergedRIS:  stringSetting(cmd, "merged-ris", "transcode.merged_ris", "merged_output.ris"),
		ReportPath: stringSetting(cmd, "report", "transcode.report_path", "run_report.yaml"),
		Newline:    types.NewlinePolicy(stringSetting(cmd, "newline", "transcode.newline", string(types.NewlineStrip))),
	}
	if strict, err := cmd.Flags().GetBool("strict"); err == nil && strict {
		cfg.Strict = true
	} else {
		cfg.Strict = viper.GetBool("transcode.strict")
	}
	return cfg
}

// catalogConfig assembles the catalog settings for the current command.
func catalogConfig(cmd *cobra.Command) types.CatalogConfig {
	cfg := types.CatalogConfig{
		CatalogDir: stringSetting(cmd, "catalog-dir", "catalog.catalog_dir", "catalog"),
		TitleTag:   stringSetting(cmd, "title-tag", "catalog.title_tag", "T1"),
	}
	if n, err := cmd.Flags().GetInt("max-results"); err == nil && n > 0 {
		cfg.MaxResults = n
	} else {
		cfg.MaxResults = viper.GetInt("catalog.max_results")
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
