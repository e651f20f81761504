package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refmerge/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StandardsConfig holds settings for loading the tag-standards table.
type StandardsConfig struct {
	// Path is the tag-standards CSV file (columns: code, label, order, notes).
	Path string `json:"path" yaml:"path"`

	// FirstTag is the code of the type-of-reference tag that opens every
	// record (default "TY").
	FirstTag string `json:"first_tag" yaml:"first_tag"`

	// Terminator is the code of the empty tag that closes every record
	// (default "ER").
	Terminator string `json:"terminator" yaml:"terminator"`

	// MultiValueMarker is the substring of a tag's notes that marks it as
	// multi-valued (default "separate line"). Notes without the marker yield
	// a single-valued tag.
	MultiValueMarker string `json:"multi_value_marker" yaml:"multi_value_marker"`
}

// NewlinePolicy selects how the RIS writer handles values containing
// line breaks, which would corrupt line-based re-parsing.
type NewlinePolicy string

const (
	// NewlineStrip replaces line breaks with a single space.
	NewlineStrip NewlinePolicy = "strip"
	// NewlineDrop omits the offending value and keeps the rest of the record.
	NewlineDrop NewlinePolicy = "drop"
	// NewlineFail aborts the write with an EncodingError.
	NewlineFail NewlinePolicy = "fail"
)

// TranscodeConfig holds the paths and policies for the convert/merge run.
// All state lives here; there are no package-level path variables.
type TranscodeConfig struct {
	// RISDir is the directory scanned for *.ris input files.
	RISDir string `json:"ris_dir" yaml:"ris_dir"`

	// CSVDir is the directory for per-source CSV output.
	CSVDir string `json:"csv_dir" yaml:"csv_dir"`

	// MergedCSV is the destination path for the merged, deduplicated CSV.
	MergedCSV string `json:"merged_csv" yaml:"merged_csv"`

	// MergedRIS is the destination path for the merged RIS output.
	MergedRIS string `json:"merged_ris" yaml:"merged_ris"`

	// ReportPath is the destination for the YAML run report. Empty disables
	// the report.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// Strict makes the parser fail on an unterminated trailing record
	// instead of discarding it with a warning.
	Strict bool `json:"strict" yaml:"strict"`

	// Newline selects the writer's line-break policy: strip, drop, or fail.
	Newline NewlinePolicy `json:"newline" yaml:"newline"`
}

// CatalogConfig holds settings for the record catalog stage.
type CatalogConfig struct {
	// CatalogDir is the directory holding the catalog database and exports.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`

	// TitleTag is the tag code used as the record title in the catalog
	// (default "T1").
	TitleTag string `json:"title_tag" yaml:"title_tag"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FetchConfig holds settings for downloading RIS exports over HTTP.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// RISDir is the directory downloaded files are written to.
	RISDir string `json:"ris_dir" yaml:"ris_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Standards StandardsConfig `json:"standards" yaml:"standards"`
	Transcode TranscodeConfig `json:"transcode" yaml:"transcode"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
}
