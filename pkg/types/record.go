// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Experiment is one bilingual molecular-data entry within a Dataset.
type Experiment struct {
	// Header is the identifier line above the source table.
	Header BilingualText `json:"header" yaml:"header"`

	// Data maps row labels (English-page label when available, else the
	// Japanese one) to bilingual cell values.
	Data map[string]BilingualText `json:"data" yaml:"data"`

	// Footers are bilingual footnote lines, merged positionally.
	Footers []BilingualText `json:"footers" yaml:"footers"`

	// Searchable carries the machine-extracted fields. It is absent
	// until the extraction stage runs; the all-empty value is a valid
	// terminal state distinct from absence.
	Searchable *SearchableExperimentFields `json:"searchable,omitempty" yaml:"searchable,omitempty"`
}

// Dataset is the merged bilingual record for one molecular dataset at
// one content version.
type Dataset struct {
	// DatasetID is the accession (JGAD, DRA, GEA, BioProject, ...).
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`

	// Version is the content-derived dataset version. It advances only
	// when the normalized experiment array differs from every version
	// previously recorded for this dataset ID, independent of the
	// portal's research-level version counter.
	Version int `json:"version" yaml:"version"`

	// VersionReleaseDate is the release date of the research version
	// that introduced this content, ISO formatted.
	VersionReleaseDate *string `json:"version_release_date" yaml:"version_release_date"`

	// HumID and HumVersionID locate the parent research record.
	HumID        string `json:"hum_id" yaml:"hum_id"`
	HumVersionID string `json:"hum_version_id" yaml:"hum_version_id"`

	// Criteria is the single canonical access level for the dataset;
	// it is never stored per language.
	Criteria *Criteria `json:"criteria" yaml:"criteria"`

	// TypeOfData is the bilingual data-type label; at least one side is
	// populated.
	TypeOfData BilingualText `json:"type_of_data" yaml:"type_of_data"`

	// Policies are the data-use policies attached to this dataset,
	// deduplicated across the ja/en sources.
	Policies []Policy `json:"policies,omitempty" yaml:"policies,omitempty"`

	// Experiments are the bilingual molecular-data entries.
	Experiments []Experiment `json:"experiments" yaml:"experiments"`

	// Metadata is the cached external accession metadata attached by the
	// enrichment stage. Absent until that stage runs; an explicit null
	// records a confirmed not-found lookup.
	Metadata *AccessionMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// AccessionMetadata is the raw payload returned by an external accession
// API for one dataset, kept verbatim for downstream indexing.
type AccessionMetadata struct {
	// Accession is the queried identifier.
	Accession string `json:"accession" yaml:"accession"`

	// Source names the API that served the payload (e.g. "jga", "ddbj-search").
	Source string `json:"source" yaml:"source"`

	// Payload is the unmodified response body.
	Payload json.RawMessage `json:"payload" yaml:"payload"`

	// FetchedAt is the ISO timestamp of the lookup.
	FetchedAt string `json:"fetched_at" yaml:"fetched_at"`
}

// SearchableExperimentFields are the structured attributes derived per
// experiment by the extraction stage. The zero value is the extraction
// failure sentinel.
type SearchableExperimentFields struct {
	// SubjectCount is the number of subjects or samples, when stated.
	SubjectCount *int `json:"subject_count" yaml:"subject_count"`

	// Diseases lists studied diseases or phenotypes.
	Diseases []string `json:"diseases" yaml:"diseases"`

	// Tissue is the sampled tissue or material.
	Tissue string `json:"tissue" yaml:"tissue"`

	// AssayType is the experimental assay (WGS, RNA-seq, ...).
	AssayType string `json:"assay_type" yaml:"assay_type"`

	// Platform is the instrument or array platform.
	Platform string `json:"platform" yaml:"platform"`

	// ReadType is the sequencing read layout (paired-end 150bp, ...).
	ReadType string `json:"read_type" yaml:"read_type"`

	// FileTypes lists distributed file formats.
	FileTypes []string `json:"file_types" yaml:"file_types"`

	// DataVolume is the stated data size.
	DataVolume string `json:"data_volume" yaml:"data_volume"`

	// Policies lists policy labels that constrain reuse.
	Policies []string `json:"policies" yaml:"policies"`
}

// IsEmpty reports whether every field is unset. The empty value is both
// a valid terminal state (nothing extractable) and the retry-eligible
// failure sentinel.
func (f SearchableExperimentFields) IsEmpty() bool {
	return f.SubjectCount == nil &&
		len(f.Diseases) == 0 &&
		f.Tissue == "" &&
		f.AssayType == "" &&
		f.Platform == "" &&
		f.ReadType == "" &&
		len(f.FileTypes) == 0 &&
		f.DataVolume == "" &&
		len(f.Policies) == 0
}

// DataProvider is one bilingual data-provider entry, merged positionally
// from the two language pages.
type DataProvider struct {
	PrincipalInvestigator BilingualText `json:"principal_investigator" yaml:"principal_investigator"`
	Affiliation           BilingualText `json:"affiliation" yaml:"affiliation"`
}

// Grant is one bilingual funding entry.
type Grant struct {
	Name  BilingualText `json:"name" yaml:"name"`
	ID    *string       `json:"id" yaml:"id"`
	Title BilingualText `json:"title" yaml:"title"`
}

// Publication is one bilingual publication entry. The title pair is
// merged positionally; dataset references are expanded to the full
// co-occurrence set before persisting.
type Publication struct {
	Title      BilingualText `json:"title" yaml:"title"`
	DOI        *string       `json:"doi" yaml:"doi"`
	DatasetIDs []string      `json:"dataset_ids" yaml:"dataset_ids"`
}

// ControlledAccessUser is one bilingual approved-user entry.
type ControlledAccessUser struct {
	Name          BilingualText `json:"name" yaml:"name"`
	Affiliation   BilingualText `json:"affiliation" yaml:"affiliation"`
	Country       BilingualText `json:"country" yaml:"country"`
	ResearchTitle BilingualText `json:"research_title" yaml:"research_title"`
	DatasetIDs    []string      `json:"dataset_ids" yaml:"dataset_ids"`
	PeriodStart   *string       `json:"period_start" yaml:"period_start"`
	PeriodEnd     *string       `json:"period_end" yaml:"period_end"`
}

// Research is the humId-scoped bilingual aggregate.
type Research struct {
	HumID string        `json:"hum_id" yaml:"hum_id"`
	Title BilingualText `json:"title" yaml:"title"`

	Aims    BilingualText `json:"aims" yaml:"aims"`
	Methods BilingualText `json:"methods" yaml:"methods"`
	Targets BilingualText `json:"targets" yaml:"targets"`
	URLs    []string      `json:"urls" yaml:"urls"`

	DataProviders         []DataProvider         `json:"data_providers" yaml:"data_providers"`
	ProjectNames          []BilingualText        `json:"project_names" yaml:"project_names"`
	Grants                []Grant                `json:"grants" yaml:"grants"`
	Publications          []Publication          `json:"publications" yaml:"publications"`
	ControlledAccessUsers []ControlledAccessUser `json:"controlled_access_users" yaml:"controlled_access_users"`

	// Versions lists this research's humVersionIds in release order.
	Versions []string `json:"versions" yaml:"versions"`
}

// ResearchVersion is one released version of a Research record.
type ResearchVersion struct {
	HumVersionID string `json:"hum_version_id" yaml:"hum_version_id"`
	HumID        string `json:"hum_id" yaml:"hum_id"`

	// Version is the portal's research-level version number parsed from
	// the humVersionId suffix.
	Version int `json:"version" yaml:"version"`

	// DatasetIDs references this version's datasets, expanded to their
	// full co-occurrence sets.
	DatasetIDs []string `json:"dataset_ids" yaml:"dataset_ids"`

	ReleaseDate *string       `json:"release_date" yaml:"release_date"`
	ReleaseNote BilingualText `json:"release_note" yaml:"release_note"`

	// Orphans carries the per-language orphan diagnostics forward so
	// audits survive the merge.
	Orphans []OrphanReference `json:"orphans,omitempty" yaml:"orphans,omitempty"`
}
