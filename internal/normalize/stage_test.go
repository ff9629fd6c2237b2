// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub003/internal/htmlparse"
	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

const cachedPage = `<html><body>
<h1>がんゲノム研究</h1>
<p><strong>目的</strong>：がんの原因解明</p>
<table>
<tr><th>データID</th><th>内容</th><th>制限</th><th>公開日</th></tr>
<tr><td>JGAD000001</td><td>全ゲノム</td><td>制限公開（Type I）</td><td>2020/04/01</td></tr>
</table>
<h2>分子データ</h2>
<p><strong>JGAD000001 （全ゲノム）</strong></p>
<table>
<tr><td>検体数</td><td>100</td></tr>
</table>
</body></html>`

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		file   string
		hvID   string
		want   bool
	}{
		{"empty filter", Filter{}, "a.html", "hum0001.v1", true},
		{"file match", Filter{File: "a.html"}, "a.html", "hum0001.v1", true},
		{"file mismatch", Filter{File: "b.html"}, "a.html", "hum0001.v1", false},
		{"humid match", Filter{HumID: "hum0001"}, "a.html", "hum0001.v2", true},
		{"humid mismatch", Filter{HumID: "hum0002"}, "a.html", "hum0001.v1", false},
		{"humid no prefix bleed", Filter{HumID: "hum0001"}, "a.html", "hum00011.v1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.file, tt.hvID))
		})
	}
}

func TestSplitCacheName(t *testing.T) {
	hvID, lang, ok := splitCacheName("hum0001.v2-ja.html")
	require.True(t, ok)
	assert.Equal(t, "hum0001.v2", hvID)
	assert.Equal(t, types.LangJa, lang)

	for _, bad := range []string{"hum0001.v2.html", "hum0001.v2-fr.html", "notes-ja.html"} {
		_, _, ok := splitCacheName(bad)
		assert.False(t, ok, bad)
	}
}

func TestStageRunAll(t *testing.T) {
	cacheDir, outDir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "hum0001.v1-ja.html"), []byte(cachedPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "stray.html"), []byte("<html></html>"), 0o644))

	cfg := types.ParseConfig{CacheDir: cacheDir, OutDir: outDir}
	summary, err := RunAll(context.Background(), htmlparse.New(nil), New(nil, nil), cfg, Filter{}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Parsed)
	assert.Equal(t, 1, summary.Skipped) // stray.html has no version-lang name
	assert.Equal(t, 0, summary.Failed)

	var result types.NormalizedParseResult
	require.NoError(t, jsonio.Read(filepath.Join(outDir, "hum0001.v1-ja.json"), &result))
	assert.Equal(t, "hum0001", result.HumID)
	assert.Equal(t, types.LangJa, result.Lang)
	require.Len(t, result.MolecularData, 1)
	assert.Equal(t, []string{"JGAD000001"}, result.MolecularData[0].DatasetIDs)
	require.NotNil(t, result.Summary.DatasetRows[0].Criteria)
	assert.Equal(t, types.CriteriaControlledI, *result.Summary.DatasetRows[0].Criteria)
}

func TestStageRunAllContinuesPastFailures(t *testing.T) {
	cacheDir, outDir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "hum0001.v1-ja.html"), []byte(cachedPage), 0o644))
	// An empty body is the one fatal parse condition.
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "hum0002.v1-ja.html"), []byte("<html><body></body></html>"), 0o644))

	cfg := types.ParseConfig{CacheDir: cacheDir, OutDir: outDir}
	summary, err := RunAll(context.Background(), htmlparse.New(nil), New(nil, nil), cfg, Filter{}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Parsed)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
}

func TestStageRunAllFilter(t *testing.T) {
	cacheDir, outDir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "hum0001.v1-ja.html"), []byte(cachedPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "hum0002.v1-ja.html"), []byte(cachedPage), 0o644))

	cfg := types.ParseConfig{CacheDir: cacheDir, OutDir: outDir}
	summary, err := RunAll(context.Background(), htmlparse.New(nil), New(nil, nil), cfg, Filter{HumID: "hum0001"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Parsed)
	_, err = os.Stat(filepath.Join(outDir, "hum0002.v1-ja.json"))
	assert.True(t, os.IsNotExist(err))
}
