// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// extractionPromptTmpl instructs the model to pull the searchable
// fields out of one experiment entry. The experiment rows keep their
// original ja/en text so the model can cross-check both sides.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`Extract dataset attributes from the following experiment entry of a human genomic research database. Entries describe one sequencing or assay experiment; values appear in Japanese, English, or both.

Return a JSON object with exactly these fields:
- subject_count: integer number of subjects or samples, or null when not stated
- diseases: array of studied diseases or phenotypes in English (empty array if none)
- tissue: sampled tissue or material, or ""
- assay_type: the assay, e.g. "WGS", "WES", "RNA-seq", "SNP array", or ""
- platform: sequencing instrument or array platform, or ""
- read_type: read layout, e.g. "paired-end 150bp", or ""
- file_types: array of distributed file formats, e.g. ["FASTQ","BAM"] (empty array if none)
- data_volume: stated total data size, e.g. "1.2 TB", or ""
- policies: array of policy or consent labels constraining reuse (empty array if none)

Use "" or null or [] for anything not stated. Do not guess. Do not include any text outside the JSON object.

Experiment entry:
{{.Entry}}
`))

// BuildPrompt renders the extraction prompt for one experiment,
// optionally appending the dataset's accession metadata.
func BuildPrompt(exp types.Experiment, meta *types.AccessionMetadata) (string, error) {
	var entry bytes.Buffer

	writePair := func(label string, t types.BilingualText) {
		if t.IsEmpty() {
			return
		}
		fmt.Fprintf(&entry, "%s:", label)
		if t.JA != nil {
			fmt.Fprintf(&entry, " [ja] %s", *t.JA)
		}
		if t.EN != nil {
			fmt.Fprintf(&entry, " [en] %s", *t.EN)
		}
		entry.WriteString("\n")
	}

	writePair("Identifier", exp.Header)

	labels := make([]string, 0, len(exp.Data))
	for label := range exp.Data {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		writePair(label, exp.Data[label])
	}
	for _, f := range exp.Footers {
		writePair("Note", f)
	}

	if meta != nil && len(meta.Payload) > 0 {
		fmt.Fprintf(&entry, "\nRegistry metadata (%s):\n%s\n", meta.Source, truncate(string(meta.Payload), 4000))
	}

	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Entry string }{Entry: entry.String()}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
