// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/internal/normalize"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// BatchSummary holds counts from a merge-stage run.
type BatchSummary struct {
	Researches       int `yaml:"researches"`
	ResearchVersions int `yaml:"research_versions"`
	Datasets         int `yaml:"datasets"`

	// Reused counts datasets whose content matched an existing version.
	Reused int `yaml:"reused"`
	Failed int `yaml:"failed"`
}

// HasFailures reports whether any research failed to merge.
func (s BatchSummary) HasFailures() bool { return s.Failed > 0 }

// RunAll merges every parsed page pair under cfg.ParsedDir and writes
// research, research-version, and dataset records under cfg.OutDir. It
// continues past per-research failures.
func RunAll(m *Merger, cfg types.MergeConfig, filter normalize.Filter, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary

	for _, sub := range []string{"research", "research-version", "dataset"} {
		if err := os.MkdirAll(filepath.Join(cfg.OutDir, sub), 0o755); err != nil {
			return summary, fmt.Errorf("creating output directory: %w", err)
		}
	}

	store, err := LoadVersionStore(filepath.Join(cfg.OutDir, "dataset"))
	if err != nil {
		return summary, err
	}

	pairs, err := loadPairs(cfg.ParsedDir, filter)
	if err != nil {
		return summary, err
	}

	for _, humID := range sortedKeys(pairs) {
		versions := pairs[humID]
		if err := mergeResearch(m, store, cfg.OutDir, humID, versions, &summary, w); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", humID, err)
			summary.Failed++
		}
	}

	return summary, nil
}

func mergeResearch(m *Merger, store *VersionStore, outDir, humID string, versions []PagePair, summary *BatchSummary, w io.Writer) error {
	versionIDs := make([]string, len(versions))
	for i, pair := range versions {
		versionIDs[i] = pair.HumVersionID()
	}

	for _, pair := range versions {
		graph := BuildGraph(pair)

		rv := m.MergeResearchVersion(pair, graph)
		rvPath := filepath.Join(outDir, "research-version", rv.HumVersionID+".json")
		if err := jsonio.Write(rvPath, rv); err != nil {
			return err
		}
		summary.ResearchVersions++

		for _, d := range m.MergeDatasets(pair, graph) {
			version, existing := store.AssignVersion(d.DatasetID, d.Experiments)
			d.Version = version
			if existing {
				summary.Reused++
			}
			path := filepath.Join(outDir, "dataset", fmt.Sprintf("%s-%d.json", d.DatasetID, d.Version))
			if existing {
				// Later research versions still refresh the mutable
				// envelope (criteria, policies, release date).
				if err := mergeIntoExisting(path, d); err != nil {
					return err
				}
			} else if err := jsonio.Write(path, d); err != nil {
				return err
			}
			summary.Datasets++
		}
		fmt.Fprintf(w, "merged  %s\n", pair.HumVersionID())
	}

	latest := versions[len(versions)-1]
	r := m.MergeResearch(latest, versionIDs)
	if err := jsonio.Write(filepath.Join(outDir, "research", humID+".json"), r); err != nil {
		return err
	}
	summary.Researches++
	return nil
}

// mergeIntoExisting refreshes the envelope fields of an existing
// dataset file without disturbing its experiment content or any
// enrichment already attached downstream.
func mergeIntoExisting(path string, d *types.Dataset) error {
	var existing types.Dataset
	if err := jsonio.Read(path, &existing); err != nil {
		return err
	}
	existing.HumVersionID = d.HumVersionID
	if d.Criteria != nil {
		existing.Criteria = d.Criteria
	}
	if d.VersionReleaseDate != nil {
		existing.VersionReleaseDate = d.VersionReleaseDate
	}
	if !d.TypeOfData.IsEmpty() {
		existing.TypeOfData = d.TypeOfData
	}
	if len(d.Policies) > 0 {
		existing.Policies = d.Policies
	}
	return jsonio.Write(path, &existing)
}

// loadPairs reads parsed results and groups them into page pairs by
// humVersionId, then by humId with versions in ascending order.
func loadPairs(dir string, filter normalize.Filter) (map[string][]PagePair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading parsed directory %s: %w", dir, err)
	}

	byVersion := make(map[string]*PagePair)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		var result types.NormalizedParseResult
		if err := jsonio.Read(filepath.Join(dir, name), &result); err != nil {
			return nil, err
		}
		if !filter.Matches(name, result.HumVersionID) {
			continue
		}

		pair := byVersion[result.HumVersionID]
		if pair == nil {
			pair = &PagePair{}
			byVersion[result.HumVersionID] = pair
		}
		switch result.Lang {
		case types.LangJa:
			pair.JA = &result
		case types.LangEn:
			pair.EN = &result
		default:
			return nil, fmt.Errorf("%s: unknown language %q", name, result.Lang)
		}
	}

	byHumID := make(map[string][]PagePair)
	for _, pair := range byVersion {
		byHumID[pair.HumID()] = append(byHumID[pair.HumID()], *pair)
	}
	for humID := range byHumID {
		versions := byHumID[humID]
		sort.Slice(versions, func(i, j int) bool {
			return versionOf(versions[i]) < versionOf(versions[j])
		})
		byHumID[humID] = versions
	}
	return byHumID, nil
}

func versionOf(pair PagePair) int {
	_, v, _ := normalize.SplitHumVersionID(pair.HumVersionID())
	return v
}

func sortedKeys(m map[string][]PagePair) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
