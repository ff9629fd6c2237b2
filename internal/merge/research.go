// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"sort"

	"github.com/dbcls/humandbs-sub003/internal/accession"
	"github.com/dbcls/humandbs-sub003/internal/normalize"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// MergeResearch builds the humId-scoped Research aggregate from the
// latest page pair. The portal's pages are cumulative, so the newest
// research version carries the complete provider, publication, and
// user lists.
func (m *Merger) MergeResearch(latest PagePair, versionIDs []string) *types.Research {
	r := &types.Research{
		HumID:    latest.HumID(),
		Versions: versionIDs,
	}

	var ja, en *types.NormalizedParseResult = latest.JA, latest.EN

	r.Title = bilingual(side(ja, func(p *types.NormalizedParseResult) string { return p.Title }),
		side(en, func(p *types.NormalizedParseResult) string { return p.Title }))
	r.Aims = bilingual(side(ja, func(p *types.NormalizedParseResult) string { return p.Summary.Aims }),
		side(en, func(p *types.NormalizedParseResult) string { return p.Summary.Aims }))
	r.Methods = bilingual(side(ja, func(p *types.NormalizedParseResult) string { return p.Summary.Methods }),
		side(en, func(p *types.NormalizedParseResult) string { return p.Summary.Methods }))
	r.Targets = bilingual(side(ja, func(p *types.NormalizedParseResult) string { return p.Summary.Targets }),
		side(en, func(p *types.NormalizedParseResult) string { return p.Summary.Targets }))
	r.URLs = unionStrings(urls(ja), urls(en))

	r.DataProviders = mergeDataProviders(ja, en)
	r.ProjectNames = mergePositionalTexts(projectNames(ja), projectNames(en))
	r.Grants = mergeGrants(ja, en)

	graph := BuildGraph(latest)
	r.Publications = mergePublications(ja, en, graph)
	r.ControlledAccessUsers = mergeUsers(ja, en, graph)

	return r
}

// MergeResearchVersion builds one ResearchVersion record.
func (m *Merger) MergeResearchVersion(pair PagePair, graph *accession.Graph) *types.ResearchVersion {
	humVersionID := pair.HumVersionID()
	_, version, _ := normalize.SplitHumVersionID(humVersionID)

	rv := &types.ResearchVersion{
		HumVersionID: humVersionID,
		HumID:        pair.HumID(),
		Version:      version,
	}

	// Dataset references expand to their full co-occurrence sets.
	rv.DatasetIDs = graph.Expand(datasetIDUnion(pair))

	jaRel := releaseFor(pair.JA, humVersionID)
	enRel := releaseFor(pair.EN, humVersionID)
	var jaNote, enNote string
	if jaRel != nil {
		jaNote = jaRel.Note
		rv.ReleaseDate = jaRel.Date
	}
	if enRel != nil {
		enNote = enRel.Note
		if rv.ReleaseDate == nil {
			rv.ReleaseDate = enRel.Date
		}
	}
	rv.ReleaseNote = bilingual(jaNote, enNote)

	if pair.JA != nil {
		rv.Orphans = append(rv.Orphans, pair.JA.Orphans...)
	}
	if pair.EN != nil {
		rv.Orphans = append(rv.Orphans, pair.EN.Orphans...)
	}

	return rv
}

func releaseFor(r *types.NormalizedParseResult, humVersionID string) *types.NormalizedRelease {
	if r == nil {
		return nil
	}
	for i := range r.Releases {
		if r.Releases[i].HumVersionID == humVersionID {
			return &r.Releases[i]
		}
	}
	return nil
}

func side(r *types.NormalizedParseResult, get func(*types.NormalizedParseResult) string) string {
	if r == nil {
		return ""
	}
	return get(r)
}

func urls(r *types.NormalizedParseResult) []string {
	if r == nil {
		return nil
	}
	return r.Summary.URLs
}

func projectNames(r *types.NormalizedParseResult) []string {
	if r == nil {
		return nil
	}
	return r.DataProvider.ProjectNames
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// mergePositionalTexts pairs two string lists positionally, padding the
// shorter side with nil.
func mergePositionalTexts(ja, en []string) []types.BilingualText {
	n := len(ja)
	if len(en) > n {
		n = len(en)
	}
	var out []types.BilingualText
	for i := 0; i < n; i++ {
		var j, e string
		if i < len(ja) {
			j = ja[i]
		}
		if i < len(en) {
			e = en[i]
		}
		out = append(out, bilingual(j, e))
	}
	return out
}

// mergeDataProviders merges PI and affiliation lists positionally:
// providers have no stable key, so order is the only alignment the
// pages offer.
func mergeDataProviders(ja, en *types.NormalizedParseResult) []types.DataProvider {
	var jaPI, enPI, jaAff, enAff []string
	if ja != nil {
		jaPI, jaAff = ja.DataProvider.PrincipalInvestigators, ja.DataProvider.Affiliations
	}
	if en != nil {
		enPI, enAff = en.DataProvider.PrincipalInvestigators, en.DataProvider.Affiliations
	}

	pis := mergePositionalTexts(jaPI, enPI)
	affs := mergePositionalTexts(jaAff, enAff)

	n := len(pis)
	if len(affs) > n {
		n = len(affs)
	}
	var out []types.DataProvider
	for i := 0; i < n; i++ {
		var dp types.DataProvider
		if i < len(pis) {
			dp.PrincipalInvestigator = pis[i]
		}
		if i < len(affs) {
			dp.Affiliation = affs[i]
		}
		out = append(out, dp)
	}
	return out
}

func mergeGrants(ja, en *types.NormalizedParseResult) []types.Grant {
	var jaG, enG []types.RawGrant
	if ja != nil {
		jaG = ja.DataProvider.Grants
	}
	if en != nil {
		enG = en.DataProvider.Grants
	}

	n := len(jaG)
	if len(enG) > n {
		n = len(enG)
	}
	var out []types.Grant
	for i := 0; i < n; i++ {
		var j, e types.RawGrant
		if i < len(jaG) {
			j = jaG[i]
		}
		if i < len(enG) {
			e = enG[i]
		}
		g := types.Grant{
			Name:  bilingual(j.Name, e.Name),
			Title: bilingual(j.Title, e.Title),
		}
		// Grant numbers are language-independent; ja wins on conflict.
		if j.ID != "" {
			g.ID = types.StringPtr(j.ID)
		} else if e.ID != "" {
			g.ID = types.StringPtr(e.ID)
		}
		out = append(out, g)
	}
	return out
}

func mergePublications(ja, en *types.NormalizedParseResult, graph *accession.Graph) []types.Publication {
	var jaP, enP []types.NormalizedPublication
	if ja != nil {
		jaP = ja.Publications
	}
	if en != nil {
		enP = en.Publications
	}

	n := len(jaP)
	if len(enP) > n {
		n = len(enP)
	}
	var out []types.Publication
	for i := 0; i < n; i++ {
		var j, e types.NormalizedPublication
		if i < len(jaP) {
			j = jaP[i]
		}
		if i < len(enP) {
			e = enP[i]
		}
		p := types.Publication{
			Title: bilingual(j.Title, e.Title),
		}
		if j.DOI != nil {
			p.DOI = j.DOI
		} else {
			p.DOI = e.DOI
		}
		// References captured as partial or ranged artifacts complete
		// to their full associated set before persisting.
		p.DatasetIDs = graph.Expand(unionStrings(j.DatasetIDs, e.DatasetIDs))
		out = append(out, p)
	}
	return out
}

func mergeUsers(ja, en *types.NormalizedParseResult, graph *accession.Graph) []types.ControlledAccessUser {
	var jaU, enU []types.NormalizedControlledAccessUser
	if ja != nil {
		jaU = ja.ControlledAccessUsers
	}
	if en != nil {
		enU = en.ControlledAccessUsers
	}

	n := len(jaU)
	if len(enU) > n {
		n = len(enU)
	}
	var out []types.ControlledAccessUser
	for i := 0; i < n; i++ {
		var j, e types.NormalizedControlledAccessUser
		if i < len(jaU) {
			j = jaU[i]
		}
		if i < len(enU) {
			e = enU[i]
		}
		u := types.ControlledAccessUser{
			Name:          bilingual(j.Name, e.Name),
			Affiliation:   bilingual(j.Affiliation, e.Affiliation),
			Country:       bilingual(j.Country, e.Country),
			ResearchTitle: bilingual(j.ResearchTitle, e.ResearchTitle),
		}
		u.DatasetIDs = graph.Expand(unionStrings(j.DatasetIDs, e.DatasetIDs))
		if j.PeriodStart != nil {
			u.PeriodStart = j.PeriodStart
		} else {
			u.PeriodStart = e.PeriodStart
		}
		if j.PeriodEnd != nil {
			u.PeriodEnd = j.PeriodEnd
		} else {
			u.PeriodEnd = e.PeriodEnd
		}
		out = append(out, u)
	}
	return out
}
