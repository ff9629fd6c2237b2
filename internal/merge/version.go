// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var datasetFilePattern = regexp.MustCompile(`^(.+)-(\d+)\.json$`)

// VersionStore assigns content-based dataset versions. A dataset's
// version is determined purely by its experiment content: re-running
// the pipeline over an unchanged page reuses the existing version, and
// changed content allocates the next number. Versions survive across
// runs because the store is rebuilt from the output directory.
type VersionStore struct {
	// byDataset maps a dataset ID to its known versions, keyed by the
	// content digest of the experiment list.
	byDataset map[string]map[string]int
	maxes     map[string]int
}

// LoadVersionStore scans dir for {datasetId}-{version}.json files and
// rebuilds the digest index from their experiment content.
func LoadVersionStore(dir string) (*VersionStore, error) {
	s := &VersionStore{
		byDataset: make(map[string]map[string]int),
		maxes:     make(map[string]int),
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning dataset dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := datasetFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		var d types.Dataset
		if err := jsonio.Read(filepath.Join(dir, e.Name()), &d); err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		s.record(m[1], digestExperiments(d.Experiments), version)
	}
	return s, nil
}

func (s *VersionStore) record(datasetID, digest string, version int) {
	versions := s.byDataset[datasetID]
	if versions == nil {
		versions = make(map[string]int)
		s.byDataset[datasetID] = versions
	}
	// On digest collision across versions keep the lowest, matching
	// the first release of that content.
	if prev, ok := versions[digest]; !ok || version < prev {
		versions[digest] = version
	}
	if version > s.maxes[datasetID] {
		s.maxes[datasetID] = version
	}
}

// AssignVersion returns the version number for the given experiment
// content. Structurally equal content reuses its prior version;
// anything else gets max+1. existing reports whether the version was
// reused.
func (s *VersionStore) AssignVersion(datasetID string, experiments []types.Experiment) (version int, existing bool) {
	digest := digestExperiments(experiments)
	if v, ok := s.byDataset[datasetID][digest]; ok {
		return v, true
	}
	v := s.maxes[datasetID] + 1
	s.record(datasetID, digest, v)
	return v, false
}

// digestExperiments computes a canonical digest of the experiment
// list. encoding/json sorts map keys, so the per-experiment data maps
// compare order-insensitively while the experiment list itself stays
// order-sensitive.
func digestExperiments(experiments []types.Experiment) string {
	canonical := make([]types.Experiment, len(experiments))
	for i, e := range experiments {
		// Enrichment and extraction output must not perturb versioning.
		e.Searchable = nil
		canonical[i] = e
	}
	b, err := json.Marshal(canonical)
	if err != nil {
		// Experiment only holds marshalable fields.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
