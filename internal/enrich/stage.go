// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dbcls/humandbs-sub003/internal/cachestore"
	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// BatchSummary holds counts from an enrichment run.
type BatchSummary struct {
	Enriched int `yaml:"enriched"`
	Skipped  int `yaml:"skipped"`
	NotFound int `yaml:"not_found"`
	Failed   int `yaml:"failed"`

	// DOIsResolved counts publications whose DOI was filled in by the
	// title search pass.
	DOIsResolved int `yaml:"dois_resolved"`
}

// HasFailures reports whether any item failed.
func (s BatchSummary) HasFailures() bool { return s.Failed > 0 }

// Filter restricts an enrichment run to a subset of its inputs.
type Filter struct {
	HumID     string
	DatasetID string
	File      string
}

func (f Filter) matchesDataset(name string, d *types.Dataset) bool {
	if f.File != "" && name != f.File {
		return false
	}
	if f.HumID != "" && d.HumID != f.HumID {
		return false
	}
	if f.DatasetID != "" && d.DatasetID != f.DatasetID {
		return false
	}
	return true
}

// Enricher runs the two enrichment passes.
type Enricher struct {
	ddbj *DDBJClient
	doi  *DOIFinder
	cfg  types.EnrichConfig
	log  *zap.Logger
}

// New returns an Enricher. A nil logger disables diagnostics.
func New(ddbj *DDBJClient, doi *DOIFinder, cfg types.EnrichConfig, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{ddbj: ddbj, doi: doi, cfg: cfg, log: log}
}

// RunAll enriches every structured dataset and research record. Both
// passes continue past individual failures and accumulate them into
// the summary; the returned error covers only setup problems.
func RunAll(ctx context.Context, e *Enricher, filter Filter, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary

	if err := os.MkdirAll(e.cfg.OutDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}

	if err := e.enrichDatasets(ctx, filter, &summary, w); err != nil {
		return summary, err
	}
	if err := e.resolveDOIs(ctx, filter, &summary, w); err != nil {
		return summary, err
	}
	return summary, nil
}

// enrichDatasets is the accession-metadata pass. Each structured
// dataset is copied into the enriched directory with its accession
// metadata attached. A dataset that already carries metadata in the
// output is skipped unless forced.
func (e *Enricher) enrichDatasets(ctx context.Context, filter Filter, summary *BatchSummary, w io.Writer) error {
	srcDir := filepath.Join(e.cfg.StructuredDir, "dataset")
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("reading dataset directory %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		var d types.Dataset
		if err := jsonio.Read(filepath.Join(srcDir, name), &d); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if !filter.matchesDataset(name, &d) {
			continue
		}

		outPath := filepath.Join(e.cfg.OutDir, name)
		if !e.cfg.Force && hasMetadata(outPath) {
			summary.Skipped++
			continue
		}

		cached, err := e.attachMetadata(ctx, &d)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if d.Metadata == nil {
			summary.NotFound++
			if e.cfg.SkipCopy {
				continue
			}
		}
		if err := jsonio.Write(outPath, &d); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		summary.Enriched++
		fmt.Fprintf(w, "enriched %s\n", name)

		if !cached {
			if err := Delay(ctx, e.cfg.CallDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// attachMetadata looks up the dataset's accession. cached reports that
// no network call was made, so the caller can skip the rate-limit
// delay.
func (e *Enricher) attachMetadata(ctx context.Context, d *types.Dataset) (cached bool, err error) {
	_, state, err := e.ddbj.cache.Get("accession", d.DatasetID)
	if err != nil {
		return false, err
	}
	cached = state != cachestore.StateUnfetched

	payload, found, err := e.ddbj.Lookup(ctx, d.DatasetID)
	if err != nil {
		return cached, err
	}
	if !found {
		d.Metadata = nil
		return cached, nil
	}
	d.Metadata = &types.AccessionMetadata{
		Accession: d.DatasetID,
		Source:    "ddbj",
		Payload:   payload,
		FetchedAt: nowISO(),
	}
	return cached, nil
}

func hasMetadata(path string) bool {
	var d types.Dataset
	if err := jsonio.Read(path, &d); err != nil {
		return false
	}
	return d.Metadata != nil
}

// resolveDOIs is the title-search pass. Publications lacking a DOI are
// looked up by title, preferring the English one; the record is only
// rewritten when at least one DOI resolved.
func (e *Enricher) resolveDOIs(ctx context.Context, filter Filter, summary *BatchSummary, w io.Writer) error {
	if filter.DatasetID != "" {
		// Dataset-scoped runs have no research work to do.
		return nil
	}

	srcDir := filepath.Join(e.cfg.StructuredDir, "research")
	entries, err := os.ReadDir(srcDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading research directory %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		humID := strings.TrimSuffix(name, ".json")
		if filter.HumID != "" && humID != filter.HumID {
			continue
		}

		var r types.Research
		path := filepath.Join(srcDir, name)
		if err := jsonio.Read(path, &r); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		resolved, err := e.resolveResearchDOIs(ctx, &r, w)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if resolved == 0 {
			continue
		}
		if err := jsonio.Write(path, &r); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		summary.DOIsResolved += resolved
		fmt.Fprintf(w, "resolved %s (%d DOIs)\n", name, resolved)
	}
	return nil
}

func (e *Enricher) resolveResearchDOIs(ctx context.Context, r *types.Research, w io.Writer) (int, error) {
	resolved := 0
	for i := range r.Publications {
		p := &r.Publications[i]
		if p.DOI != nil {
			continue
		}
		// English titles give the search a fair chance; Japanese is
		// the fallback when no English title was published.
		title := ""
		if p.Title.EN != nil {
			title = *p.Title.EN
		} else if p.Title.JA != nil {
			title = *p.Title.JA
		}
		if title == "" {
			continue
		}

		doi, found, err := e.doi.FindDOI(ctx, r.HumID, title)
		if err != nil {
			// One bad title must not sink the rest of the record.
			e.log.Warn("DOI lookup failed",
				zap.String("humId", r.HumID),
				zap.String("title", title),
				zap.Error(err))
			continue
		}
		if found {
			p.DOI = &doi
			resolved++
		}
		if err := Delay(ctx, e.cfg.CallDelay); err != nil {
			return resolved, err
		}
	}
	return resolved, nil
}
