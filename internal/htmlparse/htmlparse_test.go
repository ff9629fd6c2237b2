// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlparse

import (
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFlatten(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h2>Molecular Data</h2>
		<p>Plain paragraph with <a href="/doc/x">a link</a>.</p>
		<p><strong>JGAD000123</strong></p>
		<table><tr><td>cell</td></tr></table>
		<script>ignored()</script>
		<p>line one<br><br>line two</p>
	</body></html>`)

	blocks := Flatten(doc)
	require.Len(t, blocks, 5)

	assert.Equal(t, BlockHeading, blocks[0].Kind)
	assert.Equal(t, "Molecular Data", blocks[0].Text)

	assert.Equal(t, BlockParagraph, blocks[1].Kind)
	require.Len(t, blocks[1].Anchors, 1)
	assert.Equal(t, "a link", blocks[1].Anchors[0].Text)
	assert.Equal(t, "/doc/x", blocks[1].Anchors[0].Href)

	// All-bold paragraph promotes to a heading.
	assert.Equal(t, BlockHeading, blocks[2].Kind)
	assert.Equal(t, "JGAD000123", blocks[2].Text)
	assert.Equal(t, "JGAD000123", blocks[2].Bold)

	assert.Equal(t, BlockTable, blocks[3].Kind)
	require.NotNil(t, blocks[3].Sel)

	assert.Equal(t, BlockParagraph, blocks[4].Kind)
	assert.Equal(t, "line one\nline two", blocks[4].Text)
}

func TestFlattenWrapperDiv(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="content">
		<h3>Data Provider</h3>
		<p>inside wrapper</p>
	</div><div class="footer">plain text div</div></body></html>`)

	blocks := Flatten(doc)
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockHeading, blocks[0].Kind)
	assert.Equal(t, "inside wrapper", blocks[1].Text)
	// A div without structure of its own stays a single paragraph.
	assert.Equal(t, BlockParagraph, blocks[2].Kind)
	assert.Equal(t, "plain text div", blocks[2].Text)
}

func TestReadTableHeader(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><th>データID</th><th>内容</th></tr>
		<tr><td>JGAD000001</td><td>WGS</td></tr>
	</table>`)

	got := ReadTable(doc.Find("table"))
	assert.Equal(t, []string{"データID", "内容"}, got.Header)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"JGAD000001", "WGS"}, got.Rows[0])
}

func TestReadTableTheadHeader(t *testing.T) {
	doc := parseDoc(t, `<table>
		<thead><tr><td>Dataset ID</td><td>Type of Data</td></tr></thead>
		<tbody><tr><td>JGAD000002</td><td>RNA-seq</td></tr></tbody>
	</table>`)

	got := ReadTable(doc.Find("table"))
	assert.Equal(t, []string{"Dataset ID", "Type of Data"}, got.Header)
	require.Len(t, got.Rows, 1)
}

func TestReadTableRowspan(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><th>ID</th><th>Method</th><th>Count</th></tr>
		<tr><td rowspan="3">JGAD000003</td><td>WGS</td><td>10</td></tr>
		<tr><td>WES</td><td>20</td></tr>
		<tr><td>SNP array</td><td>30</td></tr>
	</table>`)

	got := ReadTable(doc.Find("table"))
	require.Len(t, got.Rows, 3)
	assert.Equal(t, []string{"JGAD000003", "WGS", "10"}, got.Rows[0])
	assert.Equal(t, []string{"JGAD000003", "WES", "20"}, got.Rows[1])
	assert.Equal(t, []string{"JGAD000003", "SNP array", "30"}, got.Rows[2])
}

func TestReadTableColspan(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><td colspan="2">merged</td><td>tail</td></tr>
	</table>`)

	got := ReadTable(doc.Find("table"))
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"merged", "merged", "tail"}, got.Rows[0])
}

func TestReadTableTrailingCarry(t *testing.T) {
	// A rowspan in the last column carries into a row that authors
	// fewer cells; the carried cell flushes at the row's end.
	doc := parseDoc(t, `<table>
		<tr><td>a</td><td rowspan="2">span</td></tr>
		<tr><td>b</td></tr>
	</table>`)

	got := ReadTable(doc.Find("table"))
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []string{"a", "span"}, got.Rows[0])
	assert.Equal(t, []string{"b", "span"}, got.Rows[1])
}

func TestReadTableCellNewlines(t *testing.T) {
	doc := parseDoc(t, `<table><tr><td>first<br>second</td></tr></table>`)

	got := ReadTable(doc.Find("table"))
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "first\nsecond", got.Rows[0][0])
}

func TestHeaderMatches(t *testing.T) {
	expected := [][]string{
		{"データID", "内容", "制限", "公開日"},
		{"Dataset ID", "Type of Data", "Criteria", "Release Date"},
	}

	tests := []struct {
		name   string
		actual []string
		want   bool
	}{
		{"japanese exact", []string{"データID", "内容", "制限", "公開日"}, true},
		{"english case and spacing", []string{"dataset  id", "TYPE OF DATA", "criteria", "release date"}, true},
		{"extra trailing column", []string{"Dataset ID", "Type of Data", "Criteria", "Release Date", "Note"}, true},
		{"ideographic spaces", []string{"データ　ID", "内容", "制限", "公開日"}, true},
		{"too short", []string{"Dataset ID", "Type of Data"}, false},
		{"wrong cell", []string{"Dataset ID", "Type of Data", "Policy", "Release Date"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeaderMatches(tt.actual, expected))
		})
	}
}

func TestFieldScan(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<p><strong>目的</strong>: がんゲノムの解明</p>
		<p>continuation line</p>
		<p><strong>方法</strong></p>
		<p>WGS</p>
		<p>WES</p>
	</body></html>`)
	blocks := Flatten(doc)

	rules := []FieldRule{
		{Pattern: mustPattern(t, `目的|aim`), Field: "aims"},
		{Pattern: mustPattern(t, `方法|method`), Field: "methods"},
	}
	fields, unassigned := FieldScan(blocks, rules)

	assert.Equal(t, "がんゲノムの解明\ncontinuation line", fields["aims"])
	assert.Equal(t, "WGS\nWES", fields["methods"])
	assert.Empty(t, unassigned)
}

func TestFieldScanUnassigned(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<p>stray text before any label</p>
		<p><strong>対象</strong>: 乳がん患者</p>
	</body></html>`)
	blocks := Flatten(doc)

	rules := []FieldRule{{Pattern: mustPattern(t, `対象`), Field: "targets"}}
	fields, unassigned := FieldScan(blocks, rules)

	assert.Equal(t, "乳がん患者", fields["targets"])
	assert.Equal(t, []string{"stray text before any label"}, unassigned)
}

func TestSectionize(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<p>summary text</p>
		<table><tr><td>summary table</td></tr></table>
		<h2>分子データ</h2>
		<p><strong>JGAD000001</strong></p>
		<table><tr><td>molecular table</td></tr></table>
		<h2>Data Provider</h2>
		<p>principal investigator</p>
		<h2>発表論文</h2>
		<table><tr><th>題名</th><th>DOI</th></tr></table>
		<h2>更新履歴</h2>
		<p>2020/04/01 released</p>
	</body></html>`)

	sections, notes := Sectionize(Flatten(doc))
	assert.Empty(t, notes)

	assert.Len(t, sections[SectionSummary], 2)
	assert.Len(t, sections[SectionMolecularData], 2)
	require.Len(t, sections[SectionDataProvider], 1)
	assert.Equal(t, "principal investigator", sections[SectionDataProvider][0].Text)
	assert.Len(t, sections[SectionPublications], 1)
	assert.Len(t, sections[SectionReleases], 1)
}

func TestSectionizeSplitsMissingMolecularHeading(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<p>summary text</p>
		<table><tr><td>summary table</td></tr></table>
		<p><strong>JGAD000001</strong></p>
		<table><tr><td>molecular table</td></tr></table>
		<h2>Data Provider</h2>
		<p>pi</p>
	</body></html>`)

	sections, notes := Sectionize(Flatten(doc))
	require.Contains(t, notes, "split summary at missing molecular-data heading")

	// The split keeps the dataset identifier line with its table.
	assert.Len(t, sections[SectionSummary], 2)
	md := sections[SectionMolecularData]
	require.Len(t, md, 2)
	assert.Equal(t, "JGAD000001", md[0].Text)
	assert.Equal(t, BlockTable, md[1].Kind)
}

func TestSectionizeRelocatesPublicationsTable(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h2>制限公開データの利用者</h2>
		<table><tr><th>研究代表者</th><th>所属機関</th></tr><tr><td>A</td><td>B</td></tr></table>
		<table><tr><th>題名</th><th>DOI</th></tr><tr><td>Paper</td><td>10.1000/x</td></tr></table>
	</body></html>`)

	sections, notes := Sectionize(Flatten(doc))
	require.Contains(t, notes, "relocated publications table from controlled-access section")
	assert.Len(t, sections[SectionControlledAccessUsers], 1)
	assert.Len(t, sections[SectionPublications], 1)
}

func mustPattern(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	require.NoError(t, err)
	return re
}
