// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns a RawParseResult into a NormalizedParseResult:
// canonical dates, the three-valued access criteria, typed accession
// lists, the per-page dataset-ID registry, and orphan-reference
// diagnostics. All functions are pure over their inputs except for the
// injected JGAS study lookup.
package normalize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dbcls/humandbs-sub003/internal/accession"
	"github.com/dbcls/humandbs-sub003/internal/textnorm"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// humVersionPattern splits "hum0001.v2" into its humId and version.
var humVersionPattern = regexp.MustCompile(`^(hum\d{4})\.v(\d+)$`)

// SplitHumVersionID returns the humId and version number of a
// humVersionId.
func SplitHumVersionID(humVersionID string) (humID string, version int, err error) {
	m := humVersionPattern.FindStringSubmatch(humVersionID)
	if m == nil {
		return "", 0, fmt.Errorf("malformed humVersionId %q", humVersionID)
	}
	fmt.Sscanf(m[2], "%d", &version)
	return m[1], version, nil
}

// Normalizer canonicalizes raw parse results.
type Normalizer struct {
	lookup accession.StudyLookup
	log    *zap.Logger
}

// New returns a Normalizer. lookup resolves JGAS study accessions to
// their member datasets and may be nil to disable expansion; a nil
// logger disables diagnostics.
func New(lookup accession.StudyLookup, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{lookup: lookup, log: log}
}

// Normalize converts one raw result. The returned result always carries
// the registry and orphan list, even when empty.
func (n *Normalizer) Normalize(ctx context.Context, raw *types.RawParseResult) (*types.NormalizedParseResult, error) {
	humID, _, err := SplitHumVersionID(raw.HumVersionID)
	if err != nil {
		return nil, err
	}

	lang := string(raw.Lang)
	textOpts := textnorm.Options{Lang: lang, Newlines: textnorm.NewlineKeep}
	lineOpts := textnorm.Options{Lang: lang, Newlines: textnorm.NewlineToSpace}

	out := &types.NormalizedParseResult{
		HumVersionID: raw.HumVersionID,
		Lang:         raw.Lang,
		HumID:        humID,
		Title:        textnorm.NormalizeText(raw.Title, lineOpts),
		Registry:     types.DatasetIDRegistry{},
	}

	// Molecular-data blocks first: they are the sole source of the
	// dataset-ID registry.
	for i, md := range raw.MolecularData {
		nmd, err := n.normalizeMolecularData(ctx, md, textOpts)
		if err != nil {
			n.log.Warn("study expansion incomplete",
				zap.String("hum_version_id", raw.HumVersionID),
				zap.String("lang", lang),
				zap.Error(err))
		}
		for _, id := range nmd.DatasetIDs {
			out.Registry[id] = append(out.Registry[id], i)
		}
		out.MolecularData = append(out.MolecularData, nmd)
	}

	n.normalizeSummary(raw, out, textOpts, lineOpts)
	out.DataProvider = normalizeDataProvider(raw.DataProvider, lineOpts)
	n.normalizePublications(raw, out, lineOpts)
	n.normalizeControlledAccessUsers(raw, out, lineOpts)

	for _, r := range raw.Releases {
		out.Releases = append(out.Releases, types.NormalizedRelease{
			HumVersionID: textnorm.NormalizeText(r.HumVersionID, lineOpts),
			Date:         textnorm.NormalizeDate(r.Date),
			Note:         textnorm.NormalizeText(r.Note, textOpts),
		})
	}

	for _, hint := range raw.PolicyHints {
		out.Policies = append(out.Policies, textnorm.NormalizePolicy(hint.Label, hint.Href))
	}
	out.Policies = textnorm.DedupePolicies(out.Policies)

	return out, nil
}

func (n *Normalizer) normalizeMolecularData(ctx context.Context, md types.RawMolecularData, opts textnorm.Options) (types.NormalizedMolecularData, error) {
	accs := accession.Extract(md.IdentifierText)
	datasetIDs, studyIDs, err := accession.ExpandStudies(ctx, n.lookup, accs)

	lineOpts := textnorm.Options{Lang: opts.Lang, Newlines: textnorm.NewlineToSpace}
	nmd := types.NormalizedMolecularData{
		DatasetIDs: datasetIDs,
		StudyIDs:   studyIDs,
		Header:     textnorm.NormalizeText(md.IdentifierText, lineOpts),
	}
	for _, row := range md.Rows {
		nmd.Rows = append(nmd.Rows, types.RawDataRow{
			Label: textnorm.NormalizeText(row.Label, lineOpts),
			Value: textnorm.NormalizeText(row.Value, opts),
		})
	}
	for _, f := range md.Footers {
		nmd.Footers = append(nmd.Footers, textnorm.NormalizeText(f, opts))
	}
	return nmd, err
}

func (n *Normalizer) normalizeSummary(raw *types.RawParseResult, out *types.NormalizedParseResult, textOpts, lineOpts textnorm.Options) {
	s := raw.Summary
	out.Summary = types.NormalizedSummary{
		Aims:    textnorm.NormalizeText(s.Aims, textOpts),
		Methods: textnorm.NormalizeText(s.Methods, textOpts),
		Targets: textnorm.NormalizeText(s.Targets, textOpts),
		URLs:    extractURLs(s.URL),
	}
	for _, f := range s.Footers {
		out.Summary.Footers = append(out.Summary.Footers, textnorm.NormalizeText(f, textOpts))
	}

	for _, row := range s.DatasetRows {
		ids := accession.IDs(accession.Extract(row.DatasetID))
		nrow := types.NormalizedSummaryDatasetRow{
			DatasetIDs:  ids,
			TypeOfData:  textnorm.NormalizeText(row.TypeOfData, lineOpts),
			Criteria:    textnorm.NormalizeCriteria(row.Criteria),
			ReleaseDate: textnorm.NormalizeDate(row.ReleaseDate),
		}
		out.Summary.DatasetRows = append(out.Summary.DatasetRows, nrow)

		// Orphan scan: a summary citation outside the registry is
		// flagged, never dropped.
		for _, id := range ids {
			if !out.Registry.Contains(id) {
				out.Orphans = append(out.Orphans, types.OrphanReference{
					Source:    types.OrphanFromSummary,
					DatasetID: id,
					Context:   nrow.TypeOfData,
				})
			}
		}
	}
}

func (n *Normalizer) normalizePublications(raw *types.RawParseResult, out *types.NormalizedParseResult, lineOpts textnorm.Options) {
	for i, pub := range raw.Publications {
		ids := accession.IDs(accession.Extract(pub.DatasetIDs))
		npub := types.NormalizedPublication{
			Title:      textnorm.NormalizeText(pub.Title, lineOpts),
			DOI:        CleanDOI(pub.DOI),
			DatasetIDs: ids,
		}
		out.Publications = append(out.Publications, npub)

		for _, id := range ids {
			if !out.Registry.Contains(id) {
				out.Orphans = append(out.Orphans, types.OrphanReference{
					Source:    types.OrphanFromPublication,
					DatasetID: id,
					Context:   fmt.Sprintf("publication %d: %s", i, npub.Title),
				})
			}
		}
	}
}

func (n *Normalizer) normalizeControlledAccessUsers(raw *types.RawParseResult, out *types.NormalizedParseResult, lineOpts textnorm.Options) {
	for i, u := range raw.ControlledAccessUsers {
		ids := accession.IDs(accession.Extract(u.DatasetIDs))
		start, end := textnorm.NormalizePeriod(u.PeriodOfDataUse)
		nu := types.NormalizedControlledAccessUser{
			Name:          textnorm.NormalizeText(u.Name, lineOpts),
			Affiliation:   textnorm.NormalizeText(u.Affiliation, lineOpts),
			Country:       textnorm.NormalizeText(u.Country, lineOpts),
			ResearchTitle: textnorm.NormalizeText(u.ResearchTitle, lineOpts),
			DatasetIDs:    ids,
			PeriodStart:   start,
			PeriodEnd:     end,
		}
		out.ControlledAccessUsers = append(out.ControlledAccessUsers, nu)

		for _, id := range ids {
			if !out.Registry.Contains(id) {
				out.Orphans = append(out.Orphans, types.OrphanReference{
					Source:    types.OrphanFromControlledAccessUser,
					DatasetID: id,
					Context:   fmt.Sprintf("user %d: %s", i, nu.Name),
				})
			}
		}
	}
}

func normalizeDataProvider(dp types.RawDataProvider, lineOpts textnorm.Options) types.RawDataProvider {
	out := types.RawDataProvider{}
	for _, pi := range dp.PrincipalInvestigators {
		out.PrincipalInvestigators = append(out.PrincipalInvestigators, textnorm.NormalizeText(pi, lineOpts))
	}
	for _, a := range dp.Affiliations {
		out.Affiliations = append(out.Affiliations, textnorm.NormalizeText(a, lineOpts))
	}
	for _, pn := range dp.ProjectNames {
		out.ProjectNames = append(out.ProjectNames, textnorm.NormalizeText(pn, lineOpts))
	}
	for _, g := range dp.Grants {
		out.Grants = append(out.Grants, types.RawGrant{
			Name:  textnorm.NormalizeText(g.Name, lineOpts),
			ID:    textnorm.NormalizeText(g.ID, lineOpts),
			Title: textnorm.NormalizeText(g.Title, lineOpts),
		})
	}
	return out
}

// doiPattern matches a bare DOI.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s"<>]+`)

// CleanDOI extracts the bare DOI from a cell that may hold a resolver
// URL, a "doi:" prefix, or surrounding text. Nil when none is present.
func CleanDOI(s string) *string {
	m := doiPattern.FindString(s)
	if m == "" {
		return nil
	}
	m = strings.TrimRight(m, ".,;")
	return &m
}

// extractURLs pulls http(s) URLs out of the summary URL field, one per
// line as authored.
var urlPattern = regexp.MustCompile(`https?://[^\s"<>]+`)

func extractURLs(s string) []string {
	return urlPattern.FindAllString(s, -1)
}

// BuildGraph constructs the page's co-occurrence graph from normalized
// molecular-data blocks. Both the normalizer's callers and the merger
// query it instead of recomputing association sets per reference.
func BuildGraph(results ...*types.NormalizedParseResult) *accession.Graph {
	g := accession.NewGraph()
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, md := range r.MolecularData {
			g.AddBlock(md.DatasetIDs)
		}
	}
	return g
}
