// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// BatchSummary holds counts from an extraction run.
type BatchSummary struct {
	Extracted int `yaml:"extracted"`
	Skipped   int `yaml:"skipped"`
	Failed    int `yaml:"failed"`

	// EmptyExperiments counts experiments that ended in the empty-fields
	// sentinel, whether from a failed call or genuinely empty input.
	EmptyExperiments int `yaml:"empty_experiments"`
}

// Total returns the number of datasets processed.
func (s BatchSummary) Total() int { return s.Extracted + s.Skipped + s.Failed }

// HasFailures reports whether any dataset failed.
func (s BatchSummary) HasFailures() bool { return s.Failed > 0 }

// Filter restricts an extraction run to a subset of its inputs.
type Filter struct {
	HumID     string
	DatasetID string
	File      string
}

func (f Filter) matches(name string, d *types.Dataset) bool {
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

// Extractor runs the extraction stage.
type Extractor struct {
	backend AIBackend
	cfg     types.ExtractionConfig
	log     *zap.Logger
}

// New returns an Extractor. A nil logger disables diagnostics.
func New(backend AIBackend, cfg types.ExtractionConfig, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{backend: backend, cfg: cfg, log: log}
}

var extractedFilePattern = regexp.MustCompile(`^(.+)-(\d+)\.json$`)

// RunAll extracts searchable fields for every eligible dataset file.
// Datasets run in parallel up to DatasetConcurrency; experiments within
// one dataset up to ExperimentConcurrency. Per-dataset failures are
// accumulated, never fatal.
func RunAll(ctx context.Context, e *Extractor, filter Filter, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary

	if err := os.MkdirAll(e.cfg.OutDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}

	names, err := e.eligibleFiles()
	if err != nil {
		return summary, err
	}

	var mu sync.Mutex
	var out syncWriter
	out.w = w

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.DatasetConcurrency, 1))

	for _, name := range names {
		g.Go(func() error {
			status, empties, err := e.processDataset(ctx, name, filter, &out)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				fmt.Fprintf(&out, "failed    %s: %v\n", name, err)
				summary.Failed++
			case status == statusSkipped:
				summary.Skipped++
			case status == statusFiltered:
				// Not counted; the file was out of scope.
			default:
				summary.Extracted++
				summary.EmptyExperiments += empties
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	if !e.cfg.SkipCopy && !e.cfg.DryRun {
		if err := e.copyRemaining(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// copyRemaining mirrors upstream files that were not processed this run
// into the output directory, so downstream consumers always see the
// complete dataset set. Files that already have an output are left
// alone.
func (e *Extractor) copyRemaining() error {
	entries, err := os.ReadDir(e.cfg.EnrichedDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		outPath := filepath.Join(e.cfg.OutDir, name)
		if _, err := os.Stat(outPath); err == nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(e.cfg.EnrichedDir, name))
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// eligibleFiles lists input files, keeping only the highest version per
// dataset ID when LatestOnly is set.
func (e *Extractor) eligibleFiles() ([]string, error) {
	entries, err := os.ReadDir(e.cfg.EnrichedDir)
	if err != nil {
		return nil, fmt.Errorf("reading enriched directory %s: %w", e.cfg.EnrichedDir, err)
	}

	type versioned struct {
		name    string
		version int
	}
	latest := make(map[string]versioned)
	var all []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		m := extractedFilePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		all = append(all, name)
		version, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if cur, ok := latest[m[1]]; !ok || version > cur.version {
			latest[m[1]] = versioned{name: name, version: version}
		}
	}

	if !e.cfg.LatestOnly {
		sort.Strings(all)
		return all, nil
	}
	names := make([]string, 0, len(latest))
	for _, v := range latest {
		names = append(names, v.name)
	}
	sort.Strings(names)
	return names, nil
}

type datasetStatus int

const (
	statusExtracted datasetStatus = iota
	statusSkipped
	statusFiltered
)

func (e *Extractor) processDataset(ctx context.Context, name string, filter Filter, w io.Writer) (datasetStatus, int, error) {
	var d types.Dataset
	if err := jsonio.Read(filepath.Join(e.cfg.EnrichedDir, name), &d); err != nil {
		return statusExtracted, 0, err
	}
	if !filter.matches(name, &d) {
		return statusFiltered, 0, nil
	}

	outPath := filepath.Join(e.cfg.OutDir, name)
	existing, hasExisting := readExisting(outPath)

	if e.cfg.RetryFailed {
		return e.retryFailed(ctx, name, &d, existing, hasExisting, outPath, w)
	}

	// Resume: an output with any successfully extracted experiment is
	// done unless forced.
	if hasExisting && !e.cfg.Force && hasExtractedFields(existing) {
		fmt.Fprintf(w, "skipped   %s\n", name)
		return statusSkipped, 0, nil
	}

	if e.cfg.DryRun {
		fmt.Fprintf(w, "would extract %s (%d experiments)\n", name, len(d.Experiments))
		return statusSkipped, 0, nil
	}

	empties, err := e.extractExperiments(ctx, &d, eligibleAll(len(d.Experiments)))
	if err != nil {
		return statusExtracted, 0, err
	}
	if err := jsonio.Write(outPath, &d); err != nil {
		return statusExtracted, 0, err
	}
	fmt.Fprintf(w, "extracted %s (%d experiments, %d empty)\n", name, len(d.Experiments), empties)
	return statusExtracted, empties, nil
}

// retryFailed re-extracts only the experiments whose extracted fields
// are entirely empty, merging results back positionally so every other
// experiment entry stays byte-identical.
func (e *Extractor) retryFailed(ctx context.Context, name string, d *types.Dataset, existing *types.Dataset, hasExisting bool, outPath string, w io.Writer) (datasetStatus, int, error) {
	if !hasExisting {
		fmt.Fprintf(w, "skipped   %s (no prior extraction)\n", name)
		return statusSkipped, 0, nil
	}

	var indices []int
	for i := range existing.Experiments {
		s := existing.Experiments[i].Searchable
		if s == nil || s.IsEmpty() {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		fmt.Fprintf(w, "skipped   %s (nothing to retry)\n", name)
		return statusSkipped, 0, nil
	}

	if e.cfg.DryRun {
		fmt.Fprintf(w, "would retry %s (%d of %d experiments)\n", name, len(indices), len(existing.Experiments))
		return statusSkipped, 0, nil
	}

	// The prompt input comes from the enriched record, but the merge
	// target is the existing output, preserving prior successes.
	empties, err := e.extractInto(ctx, d, existing, indices)
	if err != nil {
		return statusExtracted, 0, err
	}
	if err := jsonio.Write(outPath, existing); err != nil {
		return statusExtracted, 0, err
	}
	fmt.Fprintf(w, "retried   %s (%d experiments, %d still empty)\n", name, len(indices), empties)
	return statusExtracted, empties, nil
}

func eligibleAll(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// extractExperiments runs the model over the given experiment indices
// of d, writing results into d itself.
func (e *Extractor) extractExperiments(ctx context.Context, d *types.Dataset, indices []int) (int, error) {
	return e.extractInto(ctx, d, d, indices)
}

// extractInto runs the model over src's experiments at the given
// indices and stores results positionally into dst. A failed call
// records the empty sentinel instead of aborting the dataset.
func (e *Extractor) extractInto(ctx context.Context, src, dst *types.Dataset, indices []int) (int, error) {
	maxRetries := e.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	results := make([]types.SearchableExperimentFields, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.ExperimentConcurrency, 1))
	for slot, idx := range indices {
		if idx >= len(src.Experiments) {
			continue
		}
		g.Go(func() error {
			prompt, err := BuildPrompt(src.Experiments[idx], src.Metadata)
			if err != nil {
				e.log.Warn("prompt construction failed",
					zap.String("datasetId", src.DatasetID),
					zap.Int("experiment", idx),
					zap.Error(err))
				return nil
			}
			fields, err := callWithRetry(gctx, e.backend, prompt, maxRetries)
			if err != nil {
				// The empty sentinel is retry-eligible on a later run.
				e.log.Warn("extraction call failed",
					zap.String("datasetId", src.DatasetID),
					zap.Int("experiment", idx),
					zap.Error(err))
				return nil
			}
			results[slot] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	empties := 0
	for slot, idx := range indices {
		if idx >= len(dst.Experiments) {
			continue
		}
		fields := results[slot]
		dst.Experiments[idx].Searchable = &fields
		if fields.IsEmpty() {
			empties++
		}
	}
	return empties, nil
}

func readExisting(path string) (*types.Dataset, bool) {
	var d types.Dataset
	if err := jsonio.Read(path, &d); err != nil {
		return nil, false
	}
	return &d, true
}

func hasExtractedFields(d *types.Dataset) bool {
	for i := range d.Experiments {
		if s := d.Experiments[i].Searchable; s != nil && !s.IsEmpty() {
			return true
		}
	}
	return false
}

// syncWriter serializes status lines from concurrent dataset workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
