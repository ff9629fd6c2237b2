// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RawParseResult is the loosely-typed output of parsing one portal page
// (one humVersionId in one language). Values are verbatim page text;
// nothing has been canonicalized yet. A result is written once per page
// fetch and superseded only by re-parsing.
type RawParseResult struct {
	// HumVersionID identifies the released research version this page
	// describes (e.g. "hum0001.v2").
	HumVersionID string `json:"hum_version_id" yaml:"hum_version_id"`

	// Lang is the page language, "ja" or "en".
	Lang Lang `json:"lang" yaml:"lang"`

	// Title is the research title from the page header.
	Title string `json:"title" yaml:"title"`

	// Summary is the aims/methods/targets block with its dataset table.
	Summary RawSummary `json:"summary" yaml:"summary"`

	// MolecularData lists the per-dataset identifier+table blocks.
	MolecularData []RawMolecularData `json:"molecular_data" yaml:"molecular_data"`

	// DataProvider is the PI/affiliation/project/grant block.
	DataProvider RawDataProvider `json:"data_provider" yaml:"data_provider"`

	// Publications lists the page's publication rows.
	Publications []RawPublication `json:"publications" yaml:"publications"`

	// ControlledAccessUsers lists approved data-use rows.
	ControlledAccessUsers []RawControlledAccessUser `json:"controlled_access_users" yaml:"controlled_access_users"`

	// Releases lists the release-history rows.
	Releases []RawRelease `json:"releases" yaml:"releases"`

	// PolicyHints are anchors collected from footers that may name a
	// data-use policy. The normalizer decides which ones do.
	PolicyHints []RawPolicyHint `json:"policy_hints,omitempty" yaml:"policy_hints,omitempty"`
}

// RawPolicyHint is one anchor from a footer block.
type RawPolicyHint struct {
	// Label is the anchor text.
	Label string `json:"label" yaml:"label"`

	// Href is the link target.
	Href string `json:"href" yaml:"href"`
}

// RawSummary is the summary section before normalization.
type RawSummary struct {
	// Aims is the study objective text.
	Aims string `json:"aims" yaml:"aims"`

	// Methods is the study method text.
	Methods string `json:"methods" yaml:"methods"`

	// Targets describes the studied cohort or material.
	Targets string `json:"targets" yaml:"targets"`

	// URL holds related-site links, one per line as they appeared.
	URL string `json:"url" yaml:"url"`

	// Footers are free-text notes below the summary table.
	Footers []string `json:"footers" yaml:"footers"`

	// DatasetRows are the summary dataset-table rows.
	DatasetRows []RawSummaryDatasetRow `json:"dataset_rows" yaml:"dataset_rows"`
}

// RawSummaryDatasetRow is one row of the summary dataset table.
type RawSummaryDatasetRow struct {
	// DatasetID is the verbatim identifier cell, which may carry several
	// accessions, ranges, or typos.
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`

	// TypeOfData is the data-type label (e.g. "WGS", "NGSデータ").
	TypeOfData string `json:"type_of_data" yaml:"type_of_data"`

	// Criteria is the verbatim access-restriction phrase.
	Criteria string `json:"criteria" yaml:"criteria"`

	// ReleaseDate is the verbatim release-date cell.
	ReleaseDate string `json:"release_date" yaml:"release_date"`
}

// RawMolecularData is one molecular-data block: the identifier line
// found above a table, the table itself as key/value rows, and any
// footnotes below it.
type RawMolecularData struct {
	// IdentifierText is the verbatim text of the nearest non-empty
	// sibling above the table, normally the accession line.
	IdentifierText string `json:"identifier_text" yaml:"identifier_text"`

	// Rows are the table's label/value rows in page order. Order must
	// survive parsing: the ja and en tables pair positionally because
	// their labels are in different languages.
	Rows []RawDataRow `json:"rows" yaml:"rows"`

	// Footers are footnote lines below the table.
	Footers []string `json:"footers" yaml:"footers"`
}

// RawDataRow is one label/value row of a molecular-data table.
type RawDataRow struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// RawDataProvider is the data-provider section before normalization.
type RawDataProvider struct {
	// PrincipalInvestigators lists PI names, one entry per line block.
	PrincipalInvestigators []string `json:"principal_investigators" yaml:"principal_investigators"`

	// Affiliations lists institutional affiliations.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`

	// ProjectNames lists research project or group names.
	ProjectNames []string `json:"project_names" yaml:"project_names"`

	// Grants lists funding rows.
	Grants []RawGrant `json:"grants" yaml:"grants"`
}

// RawGrant is one funding-table row.
type RawGrant struct {
	// Name is the grant or program name.
	Name string `json:"name" yaml:"name"`

	// ID is the grant number, when listed.
	ID string `json:"id" yaml:"id"`

	// Title is the funded project title.
	Title string `json:"title" yaml:"title"`
}

// RawPublication is one publication row.
type RawPublication struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// DOI is the verbatim DOI cell, possibly empty or a full URL.
	DOI string `json:"doi" yaml:"doi"`

	// DatasetIDs is the verbatim related-dataset cell.
	DatasetIDs string `json:"dataset_ids" yaml:"dataset_ids"`
}

// RawControlledAccessUser is one controlled-access-user row.
type RawControlledAccessUser struct {
	// Name is the approved researcher's name.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the researcher's institution.
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	// Country is the institution's country or region.
	Country string `json:"country" yaml:"country"`

	// ResearchTitle is the approved research subject.
	ResearchTitle string `json:"research_title" yaml:"research_title"`

	// DatasetIDs is the verbatim dataset-in-use cell.
	DatasetIDs string `json:"dataset_ids" yaml:"dataset_ids"`

	// PeriodOfDataUse is the verbatim usage-period cell.
	PeriodOfDataUse string `json:"period_of_data_use" yaml:"period_of_data_use"`
}

// RawRelease is one release-history row.
type RawRelease struct {
	// HumVersionID is the released version identifier cell.
	HumVersionID string `json:"hum_version_id" yaml:"hum_version_id"`

	// Date is the verbatim release-date cell.
	Date string `json:"date" yaml:"date"`

	// Note is the release-note cell.
	Note string `json:"note" yaml:"note"`
}
