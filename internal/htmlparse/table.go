// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlparse

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a fully expanded table: every row-spanning cell has been
// logically replicated into each following row it covers, so generic
// row/column extraction can treat the grid as rectangular.
type Table struct {
	// Header is the first row when it looks like a header (th cells or
	// a thead), nil otherwise.
	Header []string

	// Rows are the remaining rows' cell texts.
	Rows [][]string
}

// spanCell tracks a cell still covering upcoming rows.
type spanCell struct {
	col       int
	text      string
	remaining int
}

// ReadTable extracts a table selection with rowspan expansion. Colspan
// cells are replicated across the columns they cover so positional
// extraction stays aligned.
func ReadTable(sel *goquery.Selection) Table {
	var t Table
	var carry []spanCell

	sel.Find("tr").Each(func(rowIdx int, tr *goquery.Selection) {
		row := make([]string, 0, 8)
		isHeader := false

		// Place cells carried down from earlier rowspans first.
		pending := make(map[int]string)
		var nextCarry []spanCell
		for _, c := range carry {
			pending[c.col] = c.text
			if c.remaining > 1 {
				nextCarry = append(nextCarry, spanCell{col: c.col, text: c.text, remaining: c.remaining - 1})
			}
		}

		col := 0
		advance := func() {
			for {
				if text, ok := pending[col]; ok {
					row = append(row, text)
					delete(pending, col)
					col++
					continue
				}
				break
			}
		}

		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			tag := goquery.NodeName(cell)
			if tag != "td" && tag != "th" {
				return
			}
			if tag == "th" {
				isHeader = true
			}
			advance()

			text := cleanBlockText(cell)
			colspan := intAttr(cell, "colspan", 1)
			rowspan := intAttr(cell, "rowspan", 1)

			for i := 0; i < colspan; i++ {
				row = append(row, text)
				if rowspan > 1 {
					nextCarry = append(nextCarry, spanCell{col: col, text: text, remaining: rowspan - 1})
				}
				col++
			}
		})
		advance()
		// Flush carried cells beyond the last authored column, in
		// column order.
		if len(pending) > 0 {
			cols := make([]int, 0, len(pending))
			for c := range pending {
				cols = append(cols, c)
			}
			sort.Ints(cols)
			for _, c := range cols {
				row = append(row, pending[c])
			}
		}

		carry = nextCarry

		if len(row) == 0 {
			return
		}
		inHead := tr.ParentsFiltered("thead").Length() > 0
		if t.Header == nil && len(t.Rows) == 0 && (isHeader || inHead) {
			t.Header = row
			return
		}
		t.Rows = append(t.Rows, row)
	})

	return t
}

func intAttr(sel *goquery.Selection, name string, def int) int {
	v, ok := sel.Attr(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// HeaderMatches compares an actual header row against an expected
// bilingual header set using whitespace- and case-insensitive
// comparison. Any one expected variant matching cell-for-cell (up to
// the shorter length) counts as a match.
func HeaderMatches(actual []string, expected [][]string) bool {
	for _, variant := range expected {
		if headerVariantMatches(actual, variant) {
			return true
		}
	}
	return false
}

func headerVariantMatches(actual, variant []string) bool {
	if len(actual) < len(variant) {
		return false
	}
	for i, want := range variant {
		if squash(actual[i]) != squash(want) {
			return false
		}
	}
	return true
}

func squash(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '　':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
