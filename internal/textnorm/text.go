// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm provides pure normalization functions for portal text:
// Unicode cleanup, date parsing, access-criteria canonicalization, and
// data-use policy mapping. Every function is total; unrecognized input
// yields a nil/zero result rather than an error.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NewlineMode selects how embedded newlines are treated during text
// normalization.
type NewlineMode int

const (
	// NewlineKeep leaves newlines in place.
	NewlineKeep NewlineMode = iota
	// NewlineToSpace replaces each newline run with a single space.
	NewlineToSpace
	// NewlineStrip removes newlines entirely, joining adjacent runes.
	// Used for Japanese prose where a line break carries no spacing.
	NewlineStrip
)

// Options control NormalizeText heuristics.
type Options struct {
	// Lang conditions language-specific spacing rules. Parenthesis
	// spacing adjustments run only for "ja" so English punctuation is
	// not corrupted.
	Lang string

	// Newlines selects newline handling (default NewlineKeep).
	Newlines NewlineMode
}

// fullToHalf folds full-width forms to their half-width counterparts.
// width.Fold covers alphanumerics and most punctuation; the replacer
// handles the characters the portal uses that Fold leaves alone.
var fullToHalf = strings.NewReplacer(
	"　", " ", // ideographic space
	"（", "(",
	"）", ")",
	"：", ":",
	"－", "-",
	"―", "-",
	"‐", "-",
	"〜", "~",
	"“", `"`,
	"”", `"`,
	"’", "'",
	"‘", "'",
)

// NormalizeText canonicalizes hand-authored portal text: NFC, full-width
// to half-width for spaces/parentheses/alphanumerics/dashes, quote and
// colon spacing, then whitespace cleanup per opts.
func NormalizeText(s string, opts Options) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)
	s = fullToHalf.Replace(s)
	s = width.Fold.String(s)

	switch opts.Newlines {
	case NewlineToSpace:
		s = strings.Join(splitLinesTrimmed(s), " ")
	case NewlineStrip:
		s = strings.Join(splitLinesTrimmed(s), "")
	}

	s = normalizeColonSpacing(s)
	if opts.Lang == "ja" {
		s = normalizeParenSpacing(s)
	}

	s = collapseSpaces(s)
	return strings.TrimSpace(s)
}

// splitLinesTrimmed splits on newlines and trims each line, dropping
// empty lines.
func splitLinesTrimmed(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// normalizeColonSpacing removes space before a colon and ensures a
// single space after it when followed by text.
func normalizeColonSpacing(s string) string {
	s = strings.ReplaceAll(s, " :", ":")
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		if r == ':' && i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '/' {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// normalizeParenSpacing drops the space the width fold leaves between
// Japanese text and a following parenthesis.
func normalizeParenSpacing(s string) string {
	s = strings.ReplaceAll(s, " (", "(")
	s = strings.ReplaceAll(s, "( ", "(")
	s = strings.ReplaceAll(s, " )", ")")
	return s
}

// collapseSpaces reduces runs of spaces and tabs to a single space,
// preserving newlines.
func collapseSpaces(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t':
			space = true
		case '\n':
			space = false
			b.WriteRune('\n')
		default:
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
