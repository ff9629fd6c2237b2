// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines the ja/en normalized results for one research
// version into bilingual records and assigns content-based dataset
// versions. The tie-break for single-valued fields where the two pages
// disagree is total and explicit: the Japanese value wins when present,
// the English one otherwise; disagreements are logged for audit.
package merge

import (
	"go.uber.org/zap"

	"github.com/dbcls/humandbs-sub003/internal/accession"
	"github.com/dbcls/humandbs-sub003/internal/normalize"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// Merger builds bilingual records from per-language parse results.
type Merger struct {
	log *zap.Logger
}

// NewMerger returns a Merger. A nil logger disables diagnostics.
func NewMerger(log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{log: log}
}

// PagePair holds both language variants of one research version. Either
// side may be nil when the portal only published one language.
type PagePair struct {
	JA *types.NormalizedParseResult
	EN *types.NormalizedParseResult
}

// HumVersionID returns the pair's version identifier.
func (p PagePair) HumVersionID() string {
	if p.JA != nil {
		return p.JA.HumVersionID
	}
	if p.EN != nil {
		return p.EN.HumVersionID
	}
	return ""
}

// HumID returns the pair's research identifier.
func (p PagePair) HumID() string {
	if p.JA != nil {
		return p.JA.HumID
	}
	if p.EN != nil {
		return p.EN.HumID
	}
	return ""
}

// bilingual pairs two optional strings, dropping empties.
func bilingual(ja, en string) types.BilingualText {
	return types.NewBilingualText(types.StringPtr(ja), types.StringPtr(en))
}

// MergeDatasets builds the bilingual Datasets for one page pair. The
// graph must be the pair's co-occurrence graph; versions are assigned
// by the caller afterwards.
func (m *Merger) MergeDatasets(pair PagePair, graph *accession.Graph) []*types.Dataset {
	ids := datasetIDUnion(pair)

	var datasets []*types.Dataset
	for _, id := range ids {
		d := &types.Dataset{
			DatasetID:    id,
			HumID:        pair.HumID(),
			HumVersionID: pair.HumVersionID(),
		}

		d.Experiments = m.mergeExperiments(pair, id)
		m.applySummaryRow(pair, d)
		d.Policies = mergedPolicies(pair)

		if d.TypeOfData.IsEmpty() {
			// Fall back to the experiment header so at least one side
			// is always populated.
			for _, e := range d.Experiments {
				if !e.Header.IsEmpty() {
					d.TypeOfData = e.Header
					break
				}
			}
		}

		datasets = append(datasets, d)
	}
	return datasets
}

// datasetIDUnion returns the registry union in deterministic order: ja
// registration order first, then en-only IDs.
func datasetIDUnion(pair PagePair) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range []*types.NormalizedParseResult{pair.JA, pair.EN} {
		if r == nil {
			continue
		}
		for _, md := range r.MolecularData {
			for _, id := range md.DatasetIDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// mergeExperiments pairs the molecular-data blocks naming id across the
// two languages by registry position and merges each pair. A missing
// side leaves that side nil throughout the experiment.
func (m *Merger) mergeExperiments(pair PagePair, id string) []types.Experiment {
	jaBlocks := blocksFor(pair.JA, id)
	enBlocks := blocksFor(pair.EN, id)

	n := len(jaBlocks)
	if len(enBlocks) > n {
		n = len(enBlocks)
	}
	if len(jaBlocks) != 0 && len(enBlocks) != 0 && len(jaBlocks) != len(enBlocks) {
		m.log.Warn("experiment count differs between languages",
			zap.String("hum_version_id", pair.HumVersionID()),
			zap.String("dataset_id", id),
			zap.Int("ja", len(jaBlocks)),
			zap.Int("en", len(enBlocks)))
	}

	experiments := make([]types.Experiment, 0, n)
	for i := 0; i < n; i++ {
		var ja, en *types.NormalizedMolecularData
		if i < len(jaBlocks) {
			ja = jaBlocks[i]
		}
		if i < len(enBlocks) {
			en = enBlocks[i]
		}
		experiments = append(experiments, mergeExperiment(ja, en))
	}
	return experiments
}

func blocksFor(r *types.NormalizedParseResult, id string) []*types.NormalizedMolecularData {
	if r == nil {
		return nil
	}
	var out []*types.NormalizedMolecularData
	for _, idx := range r.Registry[id] {
		if idx >= 0 && idx < len(r.MolecularData) {
			out = append(out, &r.MolecularData[idx])
		}
	}
	return out
}

// mergeExperiment merges one ja/en block pair. Data rows pair by
// position; the map key is the English label when available, the
// Japanese one otherwise. Footers merge positionally with a nil
// placeholder on the shorter side.
func mergeExperiment(ja, en *types.NormalizedMolecularData) types.Experiment {
	e := types.Experiment{Data: map[string]types.BilingualText{}}

	var jaHeader, enHeader string
	var jaRows, enRows []types.RawDataRow
	var jaFooters, enFooters []string
	if ja != nil {
		jaHeader, jaRows, jaFooters = ja.Header, ja.Rows, ja.Footers
	}
	if en != nil {
		enHeader, enRows, enFooters = en.Header, en.Rows, en.Footers
	}

	e.Header = bilingual(jaHeader, enHeader)

	n := len(jaRows)
	if len(enRows) > n {
		n = len(enRows)
	}
	for i := 0; i < n; i++ {
		var jaRow, enRow types.RawDataRow
		if i < len(jaRows) {
			jaRow = jaRows[i]
		}
		if i < len(enRows) {
			enRow = enRows[i]
		}
		key := enRow.Label
		if key == "" {
			key = jaRow.Label
		}
		if key == "" {
			continue
		}
		e.Data[key] = bilingual(jaRow.Value, enRow.Value)
	}

	nf := len(jaFooters)
	if len(enFooters) > nf {
		nf = len(enFooters)
	}
	for i := 0; i < nf; i++ {
		var jaF, enF string
		if i < len(jaFooters) {
			jaF = jaFooters[i]
		}
		if i < len(enFooters) {
			enF = enFooters[i]
		}
		e.Footers = append(e.Footers, bilingual(jaF, enF))
	}

	return e
}

// applySummaryRow fills criteria, typeOfData, and the release date from
// the summary dataset rows citing this dataset.
func (m *Merger) applySummaryRow(pair PagePair, d *types.Dataset) {
	jaRow := summaryRowFor(pair.JA, d.DatasetID)
	enRow := summaryRowFor(pair.EN, d.DatasetID)

	var jaType, enType string
	if jaRow != nil {
		jaType = jaRow.TypeOfData
	}
	if enRow != nil {
		enType = enRow.TypeOfData
	}
	d.TypeOfData = bilingual(jaType, enType)

	// Criteria is single-valued: ja wins when present, en otherwise.
	// A genuine disagreement is logged, not resolved per language.
	var jaCrit, enCrit *types.Criteria
	if jaRow != nil {
		jaCrit = jaRow.Criteria
	}
	if enRow != nil {
		enCrit = enRow.Criteria
	}
	switch {
	case jaCrit != nil:
		if enCrit != nil && *enCrit != *jaCrit {
			m.log.Warn("criteria disagrees between languages",
				zap.String("dataset_id", d.DatasetID),
				zap.String("ja", string(*jaCrit)),
				zap.String("en", string(*enCrit)))
		}
		d.Criteria = jaCrit
	case enCrit != nil:
		d.Criteria = enCrit
	}

	switch {
	case jaRow != nil && jaRow.ReleaseDate != nil:
		d.VersionReleaseDate = jaRow.ReleaseDate
	case enRow != nil && enRow.ReleaseDate != nil:
		d.VersionReleaseDate = enRow.ReleaseDate
	}
}

func summaryRowFor(r *types.NormalizedParseResult, id string) *types.NormalizedSummaryDatasetRow {
	if r == nil {
		return nil
	}
	for i := range r.Summary.DatasetRows {
		for _, rid := range r.Summary.DatasetRows[i].DatasetIDs {
			if rid == id {
				return &r.Summary.DatasetRows[i]
			}
		}
	}
	return nil
}

// mergedPolicies unions the pair's policies, deduplicated.
func mergedPolicies(pair PagePair) []types.Policy {
	var all []types.Policy
	if pair.JA != nil {
		all = append(all, pair.JA.Policies...)
	}
	if pair.EN != nil {
		all = append(all, pair.EN.Policies...)
	}
	return dedupePolicies(all)
}

func dedupePolicies(policies []types.Policy) []types.Policy {
	seen := make(map[string]bool, len(policies))
	var out []types.Policy
	for _, p := range policies {
		key := string(p.ID) + "|" + p.Label
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// BuildGraph builds the pair's co-occurrence graph.
func BuildGraph(pair PagePair) *accession.Graph {
	return normalize.BuildGraph(pair.JA, pair.EN)
}
