// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the humandbs crawler
// pipeline: raw and normalized per-language parse results, merged bilingual
// records, and the stage configuration structs.
package types

// Lang identifies the language variant of a portal page.
type Lang string

const (
	LangJa Lang = "ja"
	LangEn Lang = "en"
)

// Langs lists the two page variants in merge-preference order: the
// Japanese page is the portal's primary source, the English page a
// translation that can lag behind it.
var Langs = []Lang{LangJa, LangEn}

// BilingualText pairs the Japanese and English renderings of one value.
// Either side may be nil when the corresponding page omits the value.
type BilingualText struct {
	JA *string `json:"ja" yaml:"ja"`
	EN *string `json:"en" yaml:"en"`
}

// NewBilingualText builds a pair from two optional strings. Empty strings
// become nil so that "absent" and "present but empty" collapse to one state.
func NewBilingualText(ja, en *string) BilingualText {
	return BilingualText{JA: nonEmpty(ja), EN: nonEmpty(en)}
}

// IsEmpty reports whether both sides are absent.
func (b BilingualText) IsEmpty() bool {
	return b.JA == nil && b.EN == nil
}

// Preferred returns the Japanese side when present, the English side
// otherwise, and "" when both are absent.
func (b BilingualText) Preferred() string {
	if b.JA != nil {
		return *b.JA
	}
	if b.EN != nil {
		return *b.EN
	}
	return ""
}

// Side returns the value for one language, or nil.
func (b BilingualText) Side(lang Lang) *string {
	if lang == LangJa {
		return b.JA
	}
	return b.EN
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
