// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"strings"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// criteriaPhrases maps recognized ja/en access-restriction phrases to
// the canonical enum. Keys are lower-cased with all spaces removed, so
// hand-authored spacing variants collapse to one entry. The three
// canonical strings are covered so the function is idempotent.
var criteriaPhrases = map[string]types.Criteria{
	"controlled-access(typei)":  types.CriteriaControlledI,
	"controlled-access(typeii)": types.CriteriaControlledII,
	"unrestricted-access":       types.CriteriaUnrestricted,

	"controlled-accesstypei":   types.CriteriaControlledI,
	"controlled-accesstypeii":  types.CriteriaControlledII,
	"controlledaccess(typei)":  types.CriteriaControlledI,
	"controlledaccess(typeii)": types.CriteriaControlledII,
	"typei":                    types.CriteriaControlledI,
	"typeii":                   types.CriteriaControlledII,
	"unrestrictedaccess":       types.CriteriaUnrestricted,
	"unrestricted":             types.CriteriaUnrestricted,
	"openaccess":               types.CriteriaUnrestricted,

	"制限公開(タイプi)":  types.CriteriaControlledI,
	"制限公開(タイプii)": types.CriteriaControlledII,
	"制限公開(typei)":   types.CriteriaControlledI,
	"制限公開(typeii)":  types.CriteriaControlledII,
	"制限公開":          types.CriteriaControlledI,
	"非制限公開":         types.CriteriaUnrestricted,
}

// NormalizeCriteria maps a verbatim access-restriction phrase to one of
// the three canonical criteria. Comma-joined multi-values use the first
// recognized token; unrecognized or empty input yields nil. The function
// is idempotent: a canonical value maps to itself.
func NormalizeCriteria(s string) *types.Criteria {
	s = NormalizeText(s, Options{Lang: "ja", Newlines: NewlineToSpace})
	if s == "" {
		return nil
	}

	for _, token := range strings.Split(s, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		token = strings.ReplaceAll(token, " ", "")
		if c, ok := criteriaPhrases[token]; ok {
			return &c
		}
	}
	return nil
}
