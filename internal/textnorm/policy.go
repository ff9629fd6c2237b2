// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"strings"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// policyRule maps a substring of the policy label or its link target to
// a canonical policy ID. Rules are checked in order; the first hit wins.
type policyRule struct {
	labelHint string
	hrefHint  string
	id        types.PolicyID
}

// policyRules covers the portal's recurring data-use policies. Labels
// the table does not cover become PolicyCustom with the original text
// preserved.
var policyRules = []policyRule{
	{labelHint: "nbdc", hrefHint: "biosciencedbc", id: types.PolicyNBDC},
	{labelHint: "ヒトデータ共有指針", id: types.PolicyNBDC},
	{labelHint: "営利", hrefHint: "company", id: types.PolicyCompanyLimitation},
	{labelHint: "for-profit", id: types.PolicyCompanyLimitation},
	{labelHint: "commercial", id: types.PolicyCompanyLimitation},
	{labelHint: "がん研究", hrefHint: "cancer", id: types.PolicyCancerResearch},
	{labelHint: "cancer research", id: types.PolicyCancerResearch},
	{labelHint: "家系", hrefHint: "familial", id: types.PolicyFamilialConstraint},
	{labelHint: "familial", id: types.PolicyFamilialConstraint},
}

// NormalizePolicy maps a policy label and optional anchor href to a
// canonical Policy. Unmatched input yields PolicyCustom carrying the
// original label.
func NormalizePolicy(label, href string) types.Policy {
	norm := strings.ToLower(NormalizeText(label, Options{Lang: "ja", Newlines: NewlineToSpace}))
	lowHref := strings.ToLower(href)

	for _, rule := range policyRules {
		if rule.labelHint != "" && strings.Contains(norm, strings.ToLower(rule.labelHint)) {
			return types.Policy{ID: rule.id, URL: href}
		}
		if rule.hrefHint != "" && lowHref != "" && strings.Contains(lowHref, rule.hrefHint) {
			return types.Policy{ID: rule.id, URL: href}
		}
	}
	return types.Policy{ID: types.PolicyCustom, Label: strings.TrimSpace(label), URL: href}
}

// DedupePolicies removes duplicate policies across the ja/en sources.
// Canonical policies dedupe on ID; custom policies on their label.
func DedupePolicies(policies []types.Policy) []types.Policy {
	seen := make(map[string]bool, len(policies))
	var out []types.Policy
	for _, p := range policies {
		key := string(p.ID)
		if p.ID == types.PolicyCustom {
			key = "custom:" + strings.ToLower(p.Label)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
