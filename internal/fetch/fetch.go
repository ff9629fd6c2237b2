// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves portal pages and API responses into the
// on-disk HTML cache. A cache hit bypasses the network entirely, which
// is what makes every later stage re-runnable offline.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/dbcls/humandbs-sub003/internal/httputil"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// Fetcher downloads into a cache directory.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
}

// New returns a Fetcher for cfg.
func New(cfg types.FetchConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// FetchHTMLCached returns the body for url, serving cacheFileName from
// the cache directory when useCache is set and the file exists. A fresh
// download is written to the cache before returning. The download goes
// to a temp file first and is renamed on success so an interrupted run
// never leaves a truncated cache entry.
func (f *Fetcher) FetchHTMLCached(ctx context.Context, url, cacheFileName string, useCache bool) ([]byte, error) {
	path := filepath.Join(f.cfg.CacheDir, cacheFileName)

	if useCache {
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	if err := os.MkdirAll(f.cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries, f.cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.cfg.CacheDir, ".fetch-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("renaming into cache: %w", err)
	}

	return os.ReadFile(path)
}

// Seed is one entry of the crawl seed list: a research version and its
// two page URLs.
type Seed struct {
	HumVersionID string `yaml:"hum_version_id"`
	JaURL        string `yaml:"ja_url"`
	EnURL        string `yaml:"en_url"`
}

// LoadSeeds reads the YAML seed list.
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed list %s: %w", path, err)
	}
	var seeds []Seed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parsing seed list %s: %w", path, err)
	}
	return seeds, nil
}

// CacheFileName is the fixed cache key for one page fetch.
func CacheFileName(humVersionID string, lang types.Lang) string {
	return fmt.Sprintf("%s-%s.html", humVersionID, lang)
}

// BatchResult summarizes a fetch run.
type BatchResult struct {
	Fetched int
	Cached  int
	Failed  int
}

// Total returns the number of pages processed.
func (r BatchResult) Total() int { return r.Fetched + r.Cached + r.Failed }

// HasFailures reports whether any page failed.
func (r BatchResult) HasFailures() bool { return r.Failed > 0 }

// FetchBatch downloads every seed's ja and en pages, printing per-item
// status to w. It continues after individual failures and applies a
// fixed delay between network fetches.
func (f *Fetcher) FetchBatch(ctx context.Context, seeds []Seed, w io.Writer) BatchResult {
	var result BatchResult
	first := true

	fetchOne := func(seed Seed, lang types.Lang, url string) {
		if url == "" {
			return
		}
		name := CacheFileName(seed.HumVersionID, lang)
		path := filepath.Join(f.cfg.CacheDir, name)

		if f.cfg.UseCache {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(w, "cached:  %s\n", name)
				result.Cached++
				return
			}
		}

		if !first && f.cfg.FetchDelay > 0 {
			time.Sleep(f.cfg.FetchDelay)
		}
		first = false

		if _, err := f.FetchHTMLCached(ctx, url, name, false); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			result.Failed++
			return
		}
		fmt.Fprintf(w, "fetched: %s\n", name)
		result.Fetched++
	}

	for _, seed := range seeds {
		fetchOne(seed, types.LangJa, seed.JaURL)
		fetchOne(seed, types.LangEn, seed.EnURL)
	}
	return result
}
