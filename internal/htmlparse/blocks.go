// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package htmlparse recovers structure from the portal's hand-authored
// HTML. The document body is flattened into an ordered list of typed
// blocks up front; an explicit state machine over that list assigns
// blocks to sections, keeping the messy-HTML heuristics away from the
// downstream merge and versioning logic.
package htmlparse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BlockKind types a flattened document block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockTable
)

// Anchor is one link inside a block.
type Anchor struct {
	Text string
	Href string
}

// Block is one sibling-level element of the document body, flattened.
type Block struct {
	Kind BlockKind

	// Text is the block's trimmed text content. Empty for tables.
	Text string

	// Bold is the trimmed text of the block's b/strong children, used
	// by the field-state machine to detect field labels.
	Bold string

	// Sel is the underlying selection, kept for table extraction.
	Sel *goquery.Selection

	// Anchors lists links inside the block.
	Anchors []Anchor
}

// IsEmpty reports whether a block carries no usable content. Tables are
// never empty for this purpose.
func (b Block) IsEmpty() bool {
	return b.Kind != BlockTable && strings.TrimSpace(b.Text) == ""
}

// headingTags are the elements treated as section headings. The portal
// mixes real h-tags with styled paragraphs, so a paragraph whose entire
// text is bold is promoted to a heading as well.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Flatten walks the document body's sibling sequence and returns it as
// typed blocks. Nested wrapper divs are descended into when they hold no
// direct text, which is how the portal's template revisions nest the
// content container.
func Flatten(doc *goquery.Document) []Block {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	var blocks []Block
	flattenChildren(body, &blocks)
	return blocks
}

func flattenChildren(sel *goquery.Selection, blocks *[]Block) {
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)
		switch {
		case tag == "table":
			*blocks = append(*blocks, Block{Kind: BlockTable, Sel: child})
		case headingTags[tag]:
			*blocks = append(*blocks, Block{
				Kind: BlockHeading,
				Text: cleanBlockText(child),
				Sel:  child,
			})
		case tag == "div" || tag == "section" || tag == "article":
			// Wrapper: recurse when it contains structure of its own.
			if child.Find("table, h1, h2, h3, h4, h5, h6").Length() > 0 {
				flattenChildren(child, blocks)
				return
			}
			*blocks = append(*blocks, paragraphBlock(child))
		case tag == "script" || tag == "style" || tag == "noscript":
			// Ignorable.
		default:
			b := paragraphBlock(child)
			// An all-bold paragraph is a styled heading.
			if b.Text != "" && b.Text == b.Bold {
				b.Kind = BlockHeading
			}
			*blocks = append(*blocks, b)
		}
	})
}

func paragraphBlock(sel *goquery.Selection) Block {
	b := Block{
		Kind: BlockParagraph,
		Text: cleanBlockText(sel),
		Bold: cleanText(sel.Find("b, strong").Text()),
		Sel:  sel,
	}
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		b.Anchors = append(b.Anchors, Anchor{Text: cleanText(a.Text()), Href: href})
	})
	return b
}

// cleanBlockText extracts a selection's text with <br> runs preserved as
// newlines, since the portal separates list-like values with breaks.
func cleanBlockText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("br").ReplaceWithHtml("\n")
	return cleanText(clone.Text())
}

func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
