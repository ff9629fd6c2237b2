// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlparse

import (
	"regexp"
	"strings"
)

// Section identifies one of the portal page's content sections.
type Section int

const (
	SectionSummary Section = iota
	SectionMolecularData
	SectionDataProvider
	SectionPublications
	SectionControlledAccessUsers
	SectionReleases
)

func (s Section) String() string {
	switch s {
	case SectionSummary:
		return "summary"
	case SectionMolecularData:
		return "molecular-data"
	case SectionDataProvider:
		return "data-provider"
	case SectionPublications:
		return "publications"
	case SectionControlledAccessUsers:
		return "controlled-access-users"
	case SectionReleases:
		return "releases"
	}
	return "unknown"
}

// headingClassifier maps bilingual heading text to sections. Patterns
// are tried in order; the first match wins. The summary section has no
// heading of its own: it is the initial state of the machine.
var headingClassifier = []struct {
	re      *regexp.Regexp
	section Section
}{
	{regexp.MustCompile(`(?i)molecular\s*data|分子データ`), SectionMolecularData},
	{regexp.MustCompile(`(?i)data\s*provider|提供者情報|データ提供者`), SectionDataProvider},
	{regexp.MustCompile(`(?i)publication|発表論文|関連論文`), SectionPublications},
	{regexp.MustCompile(`(?i)controlled[-\s]?access\s*user|データ使用者|制限公開データの利用者`), SectionControlledAccessUsers},
	{regexp.MustCompile(`(?i)release|更新履歴|公開履歴`), SectionReleases},
}

// classifyHeading returns the section a heading opens, or -1.
func classifyHeading(text string) Section {
	for _, hc := range headingClassifier {
		if hc.re.MatchString(text) {
			return hc.section
		}
	}
	return -1
}

// publicationHeaderFingerprint recognizes a publications table by its
// header cells, used to relocate one misplaced into the
// controlled-access section on known bad pages.
var publicationHeaderFingerprint = regexp.MustCompile(`(?i)^doi$|^題名$|^title$`)

// isPublicationTable fingerprints a table's header row.
func isPublicationTable(t Table) bool {
	for _, cell := range t.Header {
		if publicationHeaderFingerprint.MatchString(strings.TrimSpace(cell)) {
			return true
		}
	}
	return false
}

// Sectionize runs the section state machine over the flattened block
// list. Heading blocks switch the current section and are consumed; all
// other blocks accumulate under the section active when they appear.
//
// Two fallbacks cover known failure modes of hand-authored pages:
//
//  1. A publications table misplaced inside the controlled-access
//     section is detected by header-cell fingerprint and relocated.
//  2. A missing molecular-data heading: when the summary section holds a
//     second table, the sequence is split at the nearest preceding
//     non-empty sibling of that table, and the tail moves to the
//     molecular-data section.
func Sectionize(blocks []Block) (map[Section][]Block, []string) {
	sections := make(map[Section][]Block)
	var notes []string
	current := SectionSummary

	for _, b := range blocks {
		if b.Kind == BlockHeading {
			if s := classifyHeading(b.Text); s >= 0 {
				current = s
				continue
			}
		}
		sections[current] = append(sections[current], b)
	}

	relocateMisplacedPublications(sections, &notes)
	splitSummaryMolecularData(sections, &notes)

	return sections, notes
}

// relocateMisplacedPublications moves a publications table found in the
// controlled-access section to the publications section.
func relocateMisplacedPublications(sections map[Section][]Block, notes *[]string) {
	ca := sections[SectionControlledAccessUsers]
	if len(ca) == 0 {
		return
	}

	var kept []Block
	seenUserTable := false
	for _, b := range ca {
		if b.Kind == BlockTable {
			t := ReadTable(b.Sel)
			if seenUserTable && isPublicationTable(t) {
				sections[SectionPublications] = append(sections[SectionPublications], b)
				*notes = append(*notes, "relocated publications table from controlled-access section")
				continue
			}
			seenUserTable = true
		}
		kept = append(kept, b)
	}
	sections[SectionControlledAccessUsers] = kept
}

// splitSummaryMolecularData handles the missing molecular-data heading.
func splitSummaryMolecularData(sections map[Section][]Block, notes *[]string) {
	if len(sections[SectionMolecularData]) > 0 {
		return
	}
	summary := sections[SectionSummary]

	tableCount := 0
	secondTable := -1
	for i, b := range summary {
		if b.Kind == BlockTable {
			tableCount++
			if tableCount == 2 {
				secondTable = i
				break
			}
		}
	}
	if secondTable < 0 {
		return
	}

	// Split at the nearest preceding non-empty sibling so the table
	// keeps its identifier line. Section headings were consumed by the
	// state machine, so a heading here is a promoted all-bold
	// identifier.
	split := secondTable
	for j := secondTable - 1; j >= 0; j-- {
		if summary[j].Kind == BlockTable {
			break
		}
		if !summary[j].IsEmpty() {
			split = j
			break
		}
	}

	sections[SectionSummary] = summary[:split]
	sections[SectionMolecularData] = summary[split:]
	*notes = append(*notes, "split summary at missing molecular-data heading")
}
