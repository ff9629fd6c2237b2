// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package accession recognizes the portal's dataset identifier families,
// extracts typed accessions from free text, expands numeric ranges, and
// applies the historical correction table for known page artifacts.
package accession

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Family identifies an accession family.
type Family string

const (
	FamilyJGAD         Family = "jgad"
	FamilyJGAS         Family = "jgas"
	FamilySRA          Family = "sra" // DRA/ERA/SRA run archives
	FamilyGEA          Family = "gea"
	FamilyBioProject   Family = "bioproject"
	FamilyMetabolomics Family = "metabolomics"
	FamilyUnknown      Family = ""
)

// familyPatterns is the ordered (pattern, family) table used for typed
// extraction. Order matters: JGAS must be tried before JGAD-like
// fallbacks, and BioProject before the bare archive prefixes.
var familyPatterns = []struct {
	re     *regexp.Regexp
	family Family
}{
	{regexp.MustCompile(`JGAD\d{6,}`), FamilyJGAD},
	{regexp.MustCompile(`JGAS\d{6,}`), FamilyJGAS},
	{regexp.MustCompile(`PRJ(?:DB|NA|EB)\d+`), FamilyBioProject},
	{regexp.MustCompile(`[DES]RA\d{6,}`), FamilySRA},
	{regexp.MustCompile(`E-GEAD-\d+`), FamilyGEA},
	{regexp.MustCompile(`MTBKS\d+`), FamilyMetabolomics},
	{regexp.MustCompile(`hum\d{4}\.v\d+\.MTB[\w.-]*`), FamilyMetabolomics},
}

// rangePattern matches an accession range like "JGAD000106-JGAD000108".
var rangePattern = regexp.MustCompile(`(JGAD|JGAS|[DES]RA|PRJDB|PRJNA|PRJEB)(\d+)\s*[-–]\s*(?:(JGAD|JGAS|[DES]RA|PRJDB|PRJNA|PRJEB))?(\d+)`)

// Classify returns the family of a single, already-isolated accession.
func Classify(id string) Family {
	for _, fp := range familyPatterns {
		if m := fp.re.FindString(id); m == id && m != "" {
			return fp.family
		}
	}
	return FamilyUnknown
}

// Accession is a typed identifier extracted from page text.
type Accession struct {
	ID     string
	Family Family
}

// Extract pulls all typed accessions out of free text, in order of
// appearance, with ranges expanded and historical corrections applied
// first. Duplicates are removed, first occurrence wins.
func Extract(text string) []Accession {
	text = ApplyCorrections(text)
	text = expandRangesInText(text)

	type hit struct {
		pos int
		acc Accession
	}
	var hits []hit
	for _, fp := range familyPatterns {
		for _, loc := range fp.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{pos: loc[0], acc: Accession{ID: text[loc[0]:loc[1]], Family: fp.family}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool, len(hits))
	var out []Accession
	for _, h := range hits {
		if seen[h.acc.ID] {
			continue
		}
		seen[h.acc.ID] = true
		out = append(out, h.acc)
	}
	return out
}

// IDs returns just the identifier strings of accs.
func IDs(accs []Accession) []string {
	out := make([]string, len(accs))
	for i, a := range accs {
		out[i] = a.ID
	}
	return out
}

// ExpandRange expands "JGAD000106-JGAD000108" into the individual
// accessions it covers. A reversed range is returned unchanged so the
// artifact stays visible in the audit trail, as is any input that is
// not a recognizable range.
func ExpandRange(s string) []string {
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return []string{s}
	}
	prefix, fromDigits, toPrefix, toDigits := m[1], m[2], m[3], m[4]
	if toPrefix != "" && toPrefix != prefix {
		return []string{s}
	}

	from, err1 := strconv.Atoi(fromDigits)
	to, err2 := strconv.Atoi(toDigits)
	if err1 != nil || err2 != nil || to < from {
		return []string{s}
	}
	// Guard against a typo'd range exploding into thousands of IDs.
	if to-from > 500 {
		return []string{s}
	}

	width := len(fromDigits)
	out := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, fmt.Sprintf("%s%0*d", prefix, width, n))
	}
	return out
}

// expandRangesInText rewrites every range occurrence inside free text
// into its space-joined expansion.
func expandRangesInText(text string) string {
	return rangePattern.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Join(ExpandRange(match), " ")
	})
}

// corrections is the hard-coded table of historical page artifacts:
// verbatim strings that must map to specific accessions before generic
// extraction runs. Each entry documents one known bad page.
var corrections = map[string]string{
	// hum0028 lists a DRA range artifact that actually refers to one
	// BioProject record.
	"DRA000318-DRA000542": "PRJDB1828",
	// hum0009 carries a zero-padding typo.
	"JGAD0000042":  "JGAD000042",
	"JGAS0000000123": "JGAS000123",
}

// ApplyCorrections rewrites known historical artifacts to their correct
// accessions. Longer keys are applied first so a corrected substring
// cannot be re-matched by a shorter key.
func ApplyCorrections(text string) string {
	keys := make([]string, 0, len(corrections))
	for k := range corrections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, corrections[k])
	}
	return text
}
