// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// Stats counts the parser's recoverable anomalies for one page. None of
// them abort parsing; they feed the run report and the log.
type Stats struct {
	// MalformedRows counts table rows skipped for a wrong cell count.
	MalformedRows int

	// HeaderMismatches counts tables whose header row differed from the
	// expected bilingual set; those tables were still read positionally.
	HeaderMismatches int

	// UnassignedText lists paragraph text seen while no field was
	// active in a field-scan.
	UnassignedText []string

	// SectionNotes records fallback decisions (relocations, splits).
	SectionNotes []string
}

// Parser turns one portal page into a RawParseResult.
type Parser struct {
	log *zap.Logger
}

// New returns a Parser. A nil logger disables diagnostics.
func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// summaryFieldRules drive the field-state machine over the summary
// section's paragraph run. Pure data: ordered (pattern, field) pairs.
var summaryFieldRules = []FieldRule{
	{regexp.MustCompile(`(?i)aims?|目的`), "aims"},
	{regexp.MustCompile(`(?i)methods?|方法`), "methods"},
	{regexp.MustCompile(`(?i)participants?|targets?|materials?|対象`), "targets"},
	{regexp.MustCompile(`(?i)URL|リンク|関連サイト`), "url"},
}

// providerFieldRules drive the machine over the data-provider section.
var providerFieldRules = []FieldRule{
	{regexp.MustCompile(`(?i)principal\s*investigator|研究代表者|提供者`), "pi"},
	{regexp.MustCompile(`(?i)affiliation|所属機関|所属`), "affiliation"},
	{regexp.MustCompile(`(?i)project|研究グループ|プロジェクト`), "project"},
	{regexp.MustCompile(`(?i)grants?|funds?|科研費|助成金`), "grants"},
}

// Expected bilingual table headers. A mismatch is a warning, not a
// failure: extraction proceeds positionally either way.
var (
	summaryTableHeaders = [][]string{
		{"データID", "内容", "制限", "公開日"},
		{"Dataset ID", "Type of Data", "Criteria", "Release Date"},
	}
	publicationTableHeaders = [][]string{
		{"題名", "DOI", "データID"},
		{"Title", "DOI", "Dataset ID"},
	}
	userTableHeaders = [][]string{
		{"研究代表者", "所属機関", "国・州名", "研究題目", "利用データID", "利用期間"},
		{"Principal Investigator", "Affiliation", "Country/Region", "Research Title", "Data in Use (Dataset ID)", "Period of Data Use"},
	}
	releaseTableHeaders = [][]string{
		{"版", "公開日", "更新内容"},
		{"Version", "Release Date", "Update"},
	}
	grantTableHeaders = [][]string{
		{"科研費・助成金名", "課題番号", "研究課題名"},
		{"Name", "Grant Number", "Title"},
	}
)

// Parse converts one page's HTML into a RawParseResult. The only fatal
// condition is a document whose body yields no blocks at all; every
// other anomaly is recovered from and counted in Stats.
func (p *Parser) Parse(doc *goquery.Document, humVersionID string, lang types.Lang) (*types.RawParseResult, *Stats, error) {
	blocks := Flatten(doc)
	if len(blocks) == 0 {
		return nil, nil, fmt.Errorf("page %s (%s): document body is empty or absent", humVersionID, lang)
	}

	stats := &Stats{}
	sections, notes := Sectionize(blocks)
	stats.SectionNotes = notes
	for _, n := range notes {
		p.log.Warn("section fallback applied",
			zap.String("hum_version_id", humVersionID),
			zap.String("lang", string(lang)),
			zap.String("note", n))
	}

	result := &types.RawParseResult{
		HumVersionID: humVersionID,
		Lang:         lang,
		Title:        pageTitle(doc, blocks),
	}

	p.parseSummary(sections[SectionSummary], result, stats)
	p.parseMolecularData(sections[SectionMolecularData], result, stats)
	p.parseDataProvider(sections[SectionDataProvider], result, stats)
	p.parsePublications(sections[SectionPublications], result, stats)
	p.parseControlledAccessUsers(sections[SectionControlledAccessUsers], result, stats)
	p.parseReleases(sections[SectionReleases], result, stats)

	if len(stats.UnassignedText) > 0 {
		p.log.Debug("unassigned text during field scan",
			zap.String("hum_version_id", humVersionID),
			zap.String("lang", string(lang)),
			zap.Strings("text", stats.UnassignedText))
	}

	return result, stats, nil
}

// pageTitle prefers the first content heading over the document title,
// which carries portal chrome.
func pageTitle(doc *goquery.Document, blocks []Block) string {
	for _, b := range blocks {
		if b.Kind == BlockHeading && classifyHeading(b.Text) < 0 && b.Text != "" {
			return b.Text
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func (p *Parser) parseSummary(blocks []Block, result *types.RawParseResult, stats *Stats) {
	pre, table, post := splitAtFirstTable(blocks)

	fields, unassigned := FieldScan(pre, summaryFieldRules)
	stats.UnassignedText = append(stats.UnassignedText, unassigned...)

	result.Summary.Aims = fields["aims"]
	result.Summary.Methods = fields["methods"]
	result.Summary.Targets = fields["targets"]
	result.Summary.URL = fields["url"]

	if table != nil {
		t := ReadTable(table.Sel)
		p.checkHeader(t, summaryTableHeaders, "summary", result, stats)
		for _, row := range t.Rows {
			if len(row) < 4 {
				stats.MalformedRows++
				continue
			}
			result.Summary.DatasetRows = append(result.Summary.DatasetRows, types.RawSummaryDatasetRow{
				DatasetID:   row[0],
				TypeOfData:  row[1],
				Criteria:    row[2],
				ReleaseDate: row[3],
			})
		}
	}

	for _, b := range post {
		if b.Kind == BlockTable || b.IsEmpty() {
			continue
		}
		result.Summary.Footers = append(result.Summary.Footers, b.Text)
		collectPolicyHints(b, result)
	}
}

// parseMolecularData locates each table's identifier line by walking
// backward to the nearest non-empty, non-ignorable sibling, then reads
// the table as label/value rows. Paragraphs after a table become its
// footers, except the one claimed as the next table's identifier.
func (p *Parser) parseMolecularData(blocks []Block, result *types.RawParseResult, stats *Stats) {
	tablePos := make([]int, 0, 4)
	for i, b := range blocks {
		if b.Kind == BlockTable {
			tablePos = append(tablePos, i)
		}
	}

	idPos := make(map[int]int, len(tablePos)) // table index -> identifier block index
	used := make(map[int]bool)
	for _, tp := range tablePos {
		for j := tp - 1; j >= 0; j-- {
			b := blocks[j]
			if b.Kind == BlockTable {
				break
			}
			if b.IsEmpty() || used[j] {
				continue
			}
			idPos[tp] = j
			used[j] = true
			break
		}
	}

	for k, tp := range tablePos {
		var md types.RawMolecularData

		if j, ok := idPos[tp]; ok {
			md.IdentifierText = blocks[j].Text
		}

		t := ReadTable(blocks[tp].Sel)
		rows := t.Rows
		if t.Header != nil {
			// Molecular-data tables are label/value grids; a th-styled
			// first row is data, not a header.
			rows = append([][]string{t.Header}, rows...)
		}
		for _, row := range rows {
			if len(row) < 2 {
				stats.MalformedRows++
				continue
			}
			label := strings.TrimSpace(row[0])
			if label == "" {
				stats.MalformedRows++
				continue
			}
			md.Rows = append(md.Rows, types.RawDataRow{
				Label: label,
				Value: strings.Join(row[1:], "\n"),
			})
		}

		// Footers: paragraphs after this table, up to the next table's
		// identifier line.
		end := len(blocks)
		if k+1 < len(tablePos) {
			end = tablePos[k+1]
			if j, ok := idPos[tablePos[k+1]]; ok {
				end = j
			}
		}
		for i := tp + 1; i < end; i++ {
			b := blocks[i]
			if b.Kind == BlockTable || b.IsEmpty() {
				continue
			}
			md.Footers = append(md.Footers, b.Text)
			collectPolicyHints(b, result)
		}

		result.MolecularData = append(result.MolecularData, md)
	}
}

func (p *Parser) parseDataProvider(blocks []Block, result *types.RawParseResult, stats *Stats) {
	fields, unassigned := FieldScan(blocks, providerFieldRules)
	stats.UnassignedText = append(stats.UnassignedText, unassigned...)

	result.DataProvider.PrincipalInvestigators = splitLines(fields["pi"])
	result.DataProvider.Affiliations = splitLines(fields["affiliation"])
	result.DataProvider.ProjectNames = splitLines(fields["project"])

	for _, b := range blocks {
		if b.Kind != BlockTable {
			continue
		}
		t := ReadTable(b.Sel)
		p.checkHeader(t, grantTableHeaders, "grants", result, stats)
		for _, row := range t.Rows {
			if len(row) < 3 {
				stats.MalformedRows++
				continue
			}
			result.DataProvider.Grants = append(result.DataProvider.Grants, types.RawGrant{
				Name:  row[0],
				ID:    row[1],
				Title: row[2],
			})
		}
	}
}

func (p *Parser) parsePublications(blocks []Block, result *types.RawParseResult, stats *Stats) {
	for _, b := range blocks {
		if b.Kind != BlockTable {
			continue
		}
		t := ReadTable(b.Sel)
		p.checkHeader(t, publicationTableHeaders, "publications", result, stats)
		for _, row := range t.Rows {
			if len(row) < 2 {
				stats.MalformedRows++
				continue
			}
			pub := types.RawPublication{Title: row[0], DOI: row[1]}
			if len(row) > 2 {
				pub.DatasetIDs = row[2]
			}
			result.Publications = append(result.Publications, pub)
		}
	}
}

func (p *Parser) parseControlledAccessUsers(blocks []Block, result *types.RawParseResult, stats *Stats) {
	for _, b := range blocks {
		if b.Kind != BlockTable {
			continue
		}
		t := ReadTable(b.Sel)
		p.checkHeader(t, userTableHeaders, "controlled-access-users", result, stats)
		for _, row := range t.Rows {
			if len(row) < 6 {
				stats.MalformedRows++
				continue
			}
			result.ControlledAccessUsers = append(result.ControlledAccessUsers, types.RawControlledAccessUser{
				Name:            row[0],
				Affiliation:     row[1],
				Country:         row[2],
				ResearchTitle:   row[3],
				DatasetIDs:      row[4],
				PeriodOfDataUse: row[5],
			})
		}
	}
}

func (p *Parser) parseReleases(blocks []Block, result *types.RawParseResult, stats *Stats) {
	for _, b := range blocks {
		if b.Kind != BlockTable {
			continue
		}
		t := ReadTable(b.Sel)
		p.checkHeader(t, releaseTableHeaders, "releases", result, stats)
		for _, row := range t.Rows {
			if len(row) < 3 {
				stats.MalformedRows++
				continue
			}
			result.Releases = append(result.Releases, types.RawRelease{
				HumVersionID: row[0],
				Date:         row[1],
				Note:         row[2],
			})
		}
	}
}

// checkHeader logs a validation mismatch; parsing still proceeds
// positionally.
func (p *Parser) checkHeader(t Table, expected [][]string, table string, result *types.RawParseResult, stats *Stats) {
	if t.Header == nil {
		return
	}
	if !HeaderMatches(t.Header, expected) {
		stats.HeaderMismatches++
		p.log.Warn("unexpected table header",
			zap.String("hum_version_id", result.HumVersionID),
			zap.String("lang", string(result.Lang)),
			zap.String("table", table),
			zap.Strings("actual", t.Header))
	}
}

func collectPolicyHints(b Block, result *types.RawParseResult) {
	for _, a := range b.Anchors {
		if a.Href == "" {
			continue
		}
		result.PolicyHints = append(result.PolicyHints, types.RawPolicyHint{Label: a.Text, Href: a.Href})
	}
}

func splitAtFirstTable(blocks []Block) (pre []Block, table *Block, post []Block) {
	for i := range blocks {
		if blocks[i].Kind == BlockTable {
			return blocks[:i], &blocks[i], blocks[i+1:]
		}
	}
	return blocks, nil, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
