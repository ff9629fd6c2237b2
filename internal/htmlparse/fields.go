// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlparse

import (
	"regexp"
	"strings"
)

// FieldRule is one (pattern, field) transition of the field-state
// machine. The pattern is matched against a block's bold/strong text.
type FieldRule struct {
	Pattern *regexp.Regexp
	Field   string
}

// FieldScan runs the field-state machine over a run of sibling blocks:
// a block whose bold text matches a rule switches the active field;
// subsequent blocks accumulate into that field joined by newlines. Text
// seen while no field is active is returned in unassigned and reported
// as a diagnostic by the caller, never treated as an error.
func FieldScan(blocks []Block, rules []FieldRule) (fields map[string]string, unassigned []string) {
	fields = make(map[string]string)
	active := ""

	appendField := func(field, text string) {
		if text == "" {
			return
		}
		if fields[field] == "" {
			fields[field] = text
		} else {
			fields[field] += "\n" + text
		}
	}

	for _, b := range blocks {
		if b.Kind == BlockTable {
			continue
		}
		if b.IsEmpty() {
			continue
		}

		if field, rest, ok := matchRule(b, rules); ok {
			active = field
			appendField(active, rest)
			continue
		}

		if active == "" {
			unassigned = append(unassigned, b.Text)
			continue
		}
		appendField(active, b.Text)
	}
	return fields, unassigned
}

// matchRule checks a block against the ordered rule table. On a match it
// returns the field and the block text with the label stripped, so a
// "label: value" paragraph contributes its value immediately.
func matchRule(b Block, rules []FieldRule) (field, rest string, ok bool) {
	if b.Bold == "" {
		return "", "", false
	}
	for _, r := range rules {
		if !r.Pattern.MatchString(b.Bold) {
			continue
		}
		rest = strings.TrimSpace(strings.TrimPrefix(b.Text, b.Bold))
		rest = strings.TrimSpace(strings.TrimLeft(rest, ":："))
		return r.Field, rest, true
	}
	return "", "", false
}
