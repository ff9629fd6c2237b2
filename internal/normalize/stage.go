// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dbcls/humandbs-sub003/internal/htmlparse"
	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// Filter restricts a stage run to a subset of its inputs.
type Filter struct {
	// HumID limits processing to one research record (all versions).
	HumID string

	// File limits processing to one input file name.
	File string
}

// Matches reports whether an input file passes the filter.
func (f Filter) Matches(name, humVersionID string) bool {
	if f.File != "" && name != f.File {
		return false
	}
	if f.HumID != "" && !strings.HasPrefix(humVersionID, f.HumID+".") && humVersionID != f.HumID {
		return false
	}
	return true
}

// BatchSummary holds counts from a parse-stage run.
type BatchSummary struct {
	Parsed  int `yaml:"parsed"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`

	// Orphans is the total orphan references detected across pages.
	Orphans int `yaml:"orphans"`

	// MalformedRows and HeaderMismatches aggregate parser stats.
	MalformedRows    int `yaml:"malformed_rows"`
	HeaderMismatches int `yaml:"header_mismatches"`
}

// Total returns the number of pages processed.
func (s BatchSummary) Total() int { return s.Parsed + s.Skipped + s.Failed }

// HasFailures reports whether any page failed.
func (s BatchSummary) HasFailures() bool { return s.Failed > 0 }

// RunAll parses and normalizes every cached page, writing one
// NormalizedParseResult per (humVersionId, lang) into cfg.OutDir. It
// continues after individual failures; a structurally unparseable page
// aborts only that page.
func RunAll(ctx context.Context, parser *htmlparse.Parser, norm *Normalizer, cfg types.ParseConfig, filter Filter, w io.Writer) (BatchSummary, error) {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.CacheDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading cache directory %s: %w", cfg.CacheDir, err)
	}

	var summary BatchSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".html") {
			continue
		}

		humVersionID, lang, ok := splitCacheName(name)
		if !ok {
			fmt.Fprintf(w, "skipped %s (unrecognized name)\n", name)
			summary.Skipped++
			continue
		}
		if !filter.Matches(name, humVersionID) {
			continue
		}

		result, stats, err := parseOne(ctx, parser, norm, filepath.Join(cfg.CacheDir, name), humVersionID, lang)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		outName := fmt.Sprintf("%s-%s.json", humVersionID, lang)
		if err := jsonio.Write(filepath.Join(cfg.OutDir, outName), result); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		summary.Parsed++
		summary.Orphans += len(result.Orphans)
		summary.MalformedRows += stats.MalformedRows
		summary.HeaderMismatches += stats.HeaderMismatches
		fmt.Fprintf(w, "parsed  %s (%d datasets, %d orphans)\n", outName, len(result.Registry), len(result.Orphans))
	}

	return summary, nil
}

func parseOne(ctx context.Context, parser *htmlparse.Parser, norm *Normalizer, path, humVersionID string, lang types.Lang) (*types.NormalizedParseResult, *htmlparse.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML %s: %w", path, err)
	}

	raw, stats, err := parser.Parse(doc, humVersionID, lang)
	if err != nil {
		return nil, nil, err
	}

	result, err := norm.Normalize(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	return result, stats, nil
}

// splitCacheName parses "hum0001.v2-ja.html" into its parts.
func splitCacheName(name string) (humVersionID string, lang types.Lang, ok bool) {
	base := strings.TrimSuffix(name, ".html")
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return "", "", false
	}
	humVersionID = base[:i]
	switch types.Lang(base[i+1:]) {
	case types.LangJa:
		lang = types.LangJa
	case types.LangEn:
		lang = types.LangEn
	default:
		return "", "", false
	}
	if _, _, err := SplitHumVersionID(humVersionID); err != nil {
		return "", "", false
	}
	return humVersionID, lang, true
}
