package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refmerge/internal/fetch"
	"github.com/pdiddy/refmerge/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>...",
	Short: "Download RIS exports into the input directory",
	Long: `Fetch downloads RIS export files over HTTP into the RIS directory so
they can feed the convert and run stages. Existing files are skipped,
rate-limited responses are retried with backoff, and one failed download
does not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := fetchConfigFromFlags(cmd)

	client := &http.Client{Timeout: cfg.Timeout}
	summary, err := fetch.Fetch(context.Background(), client, args, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d download(s) failed", summary.Failed)
	}
	return nil
}

func fetchConfigFromFlags(cmd *cobra.Command) types.FetchConfig {
	risDir := stringSetting(cmd, "ris-dir", "fetch.ris_dir", "")
	if risDir == "" {
		risDir = viper.GetString("transcode.ris_dir")
	}
	if risDir == "" {
		risDir = "RIS"
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: stringSetting(cmd, "user-agent", "fetch.user_agent", "refmerge/"+version),
		},
		DownloadDelay: time.Second,
		RISDir:        risDir,
	}
	if d, err := cmd.Flags().GetDuration("timeout"); err == nil && d > 0 {
		cfg.Timeout = d
	} else if d := viper.GetDuration("fetch.timeout"); d > 0 {
		cfg.Timeout = d
	}
	if d, err := cmd.Flags().GetDuration("delay"); err == nil && d > 0 {
		cfg.DownloadDelay = d
	} else if d := viper.GetDuration("fetch.download_delay"); d > 0 {
		cfg.DownloadDelay = d
	}
	return cfg
}

func init() {
	fetchCmd.Flags().String("ris-dir", "", "directory downloaded files are written to")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")
	fetchCmd.Flags().String("user-agent", "", "User-Agent header for requests")

	rootCmd.AddCommand(fetchCmd)
}
