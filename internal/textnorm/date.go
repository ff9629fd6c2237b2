// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"fmt"
	"regexp"
	"strings"
)

// datePattern matches portal dates: YYYY/M/D, YYYY-M-D, or the
// Japanese YYYY年M月D日 form.
var datePattern = regexp.MustCompile(`(\d{4})[/\-年](\d{1,2})[/\-月](\d{1,2})日?`)

// unreleasedPhrases are the ja/en markers for a dataset announced but
// not yet released. Matching is case-insensitive on normalized text.
var unreleasedPhrases = []string{
	"coming soon",
	"not yet released",
	"未公開",
	"公開準備中",
	"近日公開",
}

// NormalizeDate converts a portal date cell to ISO YYYY-MM-DD. Explicit
// "coming soon" phrases map to nil; cells with several dates take the
// first parseable one; anything else is nil.
func NormalizeDate(s string) *string {
	s = NormalizeText(s, Options{Newlines: NewlineToSpace})
	if s == "" {
		return nil
	}

	lower := strings.ToLower(s)
	for _, phrase := range unreleasedPhrases {
		if strings.Contains(lower, phrase) {
			return nil
		}
	}

	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	month, day := m[2], m[3]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	iso := fmt.Sprintf("%s-%s-%s", m[1], month, day)
	return &iso
}

// periodSeparator splits a usage-period cell into its start and end
// dates. A bare hyphen is not a separator because ISO dates contain it.
var periodSeparator = regexp.MustCompile(`[~〜～]|\s+-\s+|\s+to\s+`)

// NormalizePeriod parses a usage-period cell ("2020/4/1～2023/3/31")
// into ISO start and end dates; either side may be nil.
func NormalizePeriod(s string) (start, end *string) {
	parts := periodSeparator.Split(s, 2)
	if len(parts) == 0 {
		return nil, nil
	}
	start = NormalizeDate(parts[0])
	if len(parts) == 2 {
		end = NormalizeDate(parts[1])
	}
	return start, end
}
