// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "humandbs-crawler/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the retry bound for server-class or transport
	// failures (default 3). Client errors are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed delay between retry attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SeedFile is the YAML list of pages to fetch.
	SeedFile string `json:"seed_file" yaml:"seed_file"`

	// CacheDir is the directory for raw HTML/JSON responses.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// UseCache serves cached files without touching the network.
	UseCache bool `json:"use_cache" yaml:"use_cache"`

	// FetchDelay is the delay between consecutive page fetches (default 1s).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`
}

// ParseConfig holds settings for the parse stage (page parsing plus
// normalization into parsed-json/).
type ParseConfig struct {
	// CacheDir is the directory holding fetched HTML.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// OutDir is the parsed-json output directory.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// MergeConfig holds settings for the merge stage.
type MergeConfig struct {
	// ParsedDir is the parsed-json input directory.
	ParsedDir string `json:"parsed_dir" yaml:"parsed_dir"`

	// OutDir is the structured-json output directory (contains
	// research/, research-version/, dataset/).
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// EnrichConfig holds settings for the enrichment stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// StructuredDir is the structured-json input directory.
	StructuredDir string `json:"structured_dir" yaml:"structured_dir"`

	// OutDir is the enriched-json output directory.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// CachePath is the sqlite lookup-cache file.
	CachePath string `json:"cache_path" yaml:"cache_path"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// CallDelay is the fixed delay between external API calls (default 1s).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`

	// Force re-enriches datasets that already carry metadata.
	Force bool `json:"force" yaml:"force"`

	// SkipCopy suppresses the initial copy of upstream files into OutDir.
	SkipCopy bool `json:"skip_copy" yaml:"skip_copy"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds settings for the LLM extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// EnrichedDir is the enriched-json input directory.
	EnrichedDir string `json:"enriched_dir" yaml:"enriched_dir"`

	// OutDir is the extracted-json output directory.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// DatasetConcurrency bounds the dataset batch size (default 2).
	DatasetConcurrency int `json:"dataset_concurrency" yaml:"dataset_concurrency"`

	// ExperimentConcurrency bounds the experiment batch size within one
	// dataset (default 4).
	ExperimentConcurrency int `json:"experiment_concurrency" yaml:"experiment_concurrency"`

	// Force re-extracts datasets that already carry extracted fields.
	Force bool `json:"force" yaml:"force"`

	// RetryFailed re-extracts only experiments whose extracted fields
	// are entirely empty. Mutually exclusive with Force.
	RetryFailed bool `json:"retry_failed" yaml:"retry_failed"`

	// DryRun exercises discovery, filtering, and merge logic without
	// issuing model calls.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// LatestOnly restricts processing to the highest version per
	// dataset ID (default true).
	LatestOnly bool `json:"latest_only" yaml:"latest_only"`

	// SkipCopy suppresses the initial copy of upstream files into OutDir.
	SkipCopy bool `json:"skip_copy" yaml:"skip_copy"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Parse      ParseConfig      `json:"parse" yaml:"parse"`
	Merge      MergeConfig      `json:"merge" yaml:"merge"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
}
