// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads RIS exports over HTTP into the input directory,
// so reference-manager export URLs can feed the pipeline directly.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/refmerge/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// Summary holds the outcome of a batch fetch.
type Summary struct {
	Fetched int
	Skipped int
	Failed  int
}

// Total returns the number of URLs processed.
func (s Summary) Total() int {
	return s.Fetched + s.Skipped + s.Failed
}

// HasFailures reports whether any download failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Fetch downloads each URL into cfg.RISDir, waiting cfg.DownloadDelay
// between downloads. Files that already exist are skipped, and a failed
// download does not stop the batch. Per-URL status goes to w.
func Fetch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) (Summary, error) {
	if err := os.MkdirAll(cfg.RISDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating %s: %w", cfg.RISDir, err)
	}

	var summary Summary
	for i, rawURL := range urls {
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(cfg.DownloadDelay):
			}
		}

		name, err := fileName(rawURL)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", rawURL, err)
			summary.Failed++
			continue
		}
		dest := filepath.Join(cfg.RISDir, name)

		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "downloading: %s\n", name)
		if err := download(ctx, client, rawURL, dest, cfg); err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", name, err)
			summary.Failed++
			continue
		}
		summary.Fetched++
	}

	fmt.Fprintf(w, "\nfetched: %d, skipped: %d, failed: %d\n",
		summary.Fetched, summary.Skipped, summary.Failed)
	return summary, nil
}

// download writes the response body to a temp file and renames it into
// place on success, so an interrupted download never leaves a partial
// input file.
func download(ctx context.Context, client *http.Client, rawURL, dest string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := doWithRetry(ctx, client, req, defaultMaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// doWithRetry executes the request and retries on HTTP 429 with
// exponential backoff starting at RetryBaseDelay. The last 429 response is
// returned after retries are exhausted so the caller can report it.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// fileName derives the destination file name from the URL path, forcing a
// .ris extension.
func fileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = u.Hostname()
	}
	if base == "" {
		return "", fmt.Errorf("cannot derive file name from %q", rawURL)
	}
	if !strings.HasSuffix(strings.ToLower(base), ".ris") {
		base += ".ris"
	}
	return base, nil
}
