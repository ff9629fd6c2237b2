// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

func TestBuildPrompt(t *testing.T) {
	exp := types.Experiment{
		Header: bilingualPair("JGAD000001 (全ゲノム)", "JGAD000001 (WGS)"),
		Data: map[string]types.BilingualText{
			"Platform":    bilingualPair("HiSeq", "HiSeq 2500"),
			"Sample Size": bilingualPair("100検体", "100 samples"),
		},
		Footers: []types.BilingualText{bilingualPair("注記", "note")},
	}

	prompt, err := BuildPrompt(exp, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Identifier: [ja] JGAD000001 (全ゲノム) [en] JGAD000001 (WGS)")
	assert.Contains(t, prompt, "Sample Size: [ja] 100検体 [en] 100 samples")
	assert.Contains(t, prompt, "Note: [ja] 注記 [en] note")
	// Labels render in sorted order.
	assert.Less(t, strings.Index(prompt, "Platform:"), strings.Index(prompt, "Sample Size:"))
	assert.NotContains(t, prompt, "Registry metadata")
}

func TestBuildPromptWithMetadata(t *testing.T) {
	exp := types.Experiment{Header: bilingualPair("JGAD000001", "")}
	meta := &types.AccessionMetadata{
		Accession: "JGAD000001",
		Source:    "ddbj-search",
		Payload:   json.RawMessage(`{"title":"study"}`),
	}

	prompt, err := BuildPrompt(exp, meta)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Registry metadata (ddbj-search):")
	assert.Contains(t, prompt, `{"title":"study"}`)
}

func TestBuildPromptTruncatesMetadata(t *testing.T) {
	exp := types.Experiment{Header: bilingualPair("JGAD000001", "")}
	meta := &types.AccessionMetadata{
		Source:  "ddbj-search",
		Payload: json.RawMessage(`"` + strings.Repeat("x", 5000) + `"`),
	}

	prompt, err := BuildPrompt(exp, meta)
	require.NoError(t, err)
	assert.Contains(t, prompt, "...")
	assert.NotContains(t, prompt, strings.Repeat("x", 4100))
}