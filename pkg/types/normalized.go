// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Criteria is the canonical data-access restriction level. Exactly three
// values exist; anything the normalizer cannot recognize stays nil.
type Criteria string

const (
	CriteriaControlledI  Criteria = "Controlled-access (Type I)"
	CriteriaControlledII Criteria = "Controlled-access (Type II)"
	CriteriaUnrestricted Criteria = "Unrestricted-access"
)

// PolicyID is the canonical identifier of a data-use policy.
type PolicyID string

const (
	PolicyNBDC               PolicyID = "nbdc"
	PolicyCompanyLimitation  PolicyID = "company-limitation"
	PolicyCancerResearch     PolicyID = "cancer-research"
	PolicyFamilialConstraint PolicyID = "familial"
	// PolicyCustom marks a policy the normalizer could not map; the
	// original label is preserved on the Policy record.
	PolicyCustom PolicyID = "custom"
)

// Policy is one normalized data-use policy reference.
type Policy struct {
	// ID is the canonical policy identifier.
	ID PolicyID `json:"id" yaml:"id"`

	// Label is the original page text, kept for PolicyCustom and audits.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// URL is the policy link target when the page carried one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// OrphanSource identifies where an orphan dataset reference was cited.
type OrphanSource string

const (
	OrphanFromSummary              OrphanSource = "summary"
	OrphanFromPublication          OrphanSource = "publication"
	OrphanFromControlledAccessUser OrphanSource = "controlled-access-user"
)

// OrphanReference records a dataset ID cited outside the molecular-data
// tables that has no entry in the page's dataset-ID registry. Orphans are
// diagnostics: the citation itself is kept in the output untouched.
type OrphanReference struct {
	// Source is the section that cited the ID.
	Source OrphanSource `json:"source" yaml:"source"`

	// DatasetID is the cited identifier.
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`

	// Context is a human-readable locator, e.g. the row's type-of-data
	// label or the publication index.
	Context string `json:"context" yaml:"context"`
}

// DatasetIDRegistry maps each dataset ID named by a molecular-data block
// to the indices of the blocks that named it. Only molecular-data blocks
// feed the registry; citations elsewhere never add entries.
type DatasetIDRegistry map[string][]int

// Contains reports whether id is registered.
func (r DatasetIDRegistry) Contains(id string) bool {
	_, ok := r[id]
	return ok
}

// IDs returns the registered dataset IDs in unspecified order.
func (r DatasetIDRegistry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

// NormalizedParseResult is a RawParseResult with every value
// canonicalized: ISO dates or nil, Criteria enum or nil, typed accession
// lists, plus the dataset-ID registry and orphan diagnostics.
type NormalizedParseResult struct {
	HumVersionID string `json:"hum_version_id" yaml:"hum_version_id"`
	Lang         Lang   `json:"lang" yaml:"lang"`
	HumID        string `json:"hum_id" yaml:"hum_id"`
	Title        string `json:"title" yaml:"title"`

	Summary               NormalizedSummary               `json:"summary" yaml:"summary"`
	MolecularData         []NormalizedMolecularData       `json:"molecular_data" yaml:"molecular_data"`
	DataProvider          RawDataProvider                 `json:"data_provider" yaml:"data_provider"`
	Publications          []NormalizedPublication         `json:"publications" yaml:"publications"`
	ControlledAccessUsers []NormalizedControlledAccessUser `json:"controlled_access_users" yaml:"controlled_access_users"`
	Releases              []NormalizedRelease             `json:"releases" yaml:"releases"`
	Policies              []Policy                        `json:"policies" yaml:"policies"`

	// Registry indexes dataset IDs declared by molecular-data blocks.
	Registry DatasetIDRegistry `json:"registry" yaml:"registry"`

	// Orphans lists dataset references cited outside the registry.
	Orphans []OrphanReference `json:"orphans" yaml:"orphans"`
}

// NormalizedSummary is the summary section after normalization.
type NormalizedSummary struct {
	Aims    string   `json:"aims" yaml:"aims"`
	Methods string   `json:"methods" yaml:"methods"`
	Targets string   `json:"targets" yaml:"targets"`
	URLs    []string `json:"urls" yaml:"urls"`
	Footers []string `json:"footers" yaml:"footers"`

	DatasetRows []NormalizedSummaryDatasetRow `json:"dataset_rows" yaml:"dataset_rows"`
}

// NormalizedSummaryDatasetRow is one summary-table row with typed
// identifiers, canonical criteria, and an ISO release date.
type NormalizedSummaryDatasetRow struct {
	DatasetIDs  []string  `json:"dataset_ids" yaml:"dataset_ids"`
	TypeOfData  string    `json:"type_of_data" yaml:"type_of_data"`
	Criteria    *Criteria `json:"criteria" yaml:"criteria"`
	ReleaseDate *string   `json:"release_date" yaml:"release_date"`
}

// NormalizedMolecularData is a molecular-data block with extracted
// accessions. JGAS study accessions are expanded to their member JGAD
// IDs in DatasetIDs; the study IDs themselves are kept for audit.
type NormalizedMolecularData struct {
	DatasetIDs []string `json:"dataset_ids" yaml:"dataset_ids"`

	// StudyIDs are JGAS accessions that were expanded into DatasetIDs.
	StudyIDs []string `json:"study_ids,omitempty" yaml:"study_ids,omitempty"`

	// Header is the normalized identifier line used as the experiment
	// heading downstream.
	Header string `json:"header" yaml:"header"`

	// Rows keep the table's page order so the bilingual merge can pair
	// ja and en rows positionally.
	Rows    []RawDataRow `json:"rows" yaml:"rows"`
	Footers []string     `json:"footers" yaml:"footers"`
}

// NormalizedPublication is a publication row with typed dataset IDs and
// a cleaned DOI (bare form, no resolver prefix).
type NormalizedPublication struct {
	Title      string   `json:"title" yaml:"title"`
	DOI        *string  `json:"doi" yaml:"doi"`
	DatasetIDs []string `json:"dataset_ids" yaml:"dataset_ids"`
}

// NormalizedControlledAccessUser is a controlled-access-user row with
// typed dataset IDs and ISO usage-period dates where parseable.
type NormalizedControlledAccessUser struct {
	Name          string   `json:"name" yaml:"name"`
	Affiliation   string   `json:"affiliation" yaml:"affiliation"`
	Country       string   `json:"country" yaml:"country"`
	ResearchTitle string   `json:"research_title" yaml:"research_title"`
	DatasetIDs    []string `json:"dataset_ids" yaml:"dataset_ids"`
	PeriodStart   *string  `json:"period_start" yaml:"period_start"`
	PeriodEnd     *string  `json:"period_end" yaml:"period_end"`
}

// NormalizedRelease is a release-history row with an ISO date.
type NormalizedRelease struct {
	HumVersionID string  `json:"hum_version_id" yaml:"hum_version_id"`
	Date         *string `json:"date" yaml:"date"`
	Note         string  `json:"note" yaml:"note"`
}
