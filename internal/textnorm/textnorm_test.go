// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
		want string
	}{
		{
			name: "full-width to half-width",
			in:   "ＪＧＡＤ００００１２３　（Ｔｙｐｅ　Ｉ）",
			opts: Options{Lang: "ja"},
			want: "JGAD0000123(Type I)",
		},
		{
			name: "ideographic space collapses",
			in:   "全ゲノム　　シークエンス",
			opts: Options{Lang: "ja"},
			want: "全ゲノム シークエンス",
		},
		{
			name: "newlines to space",
			in:   "line one\nline two",
			opts: Options{Newlines: NewlineToSpace},
			want: "line one line two",
		},
		{
			name: "newlines stripped for japanese prose",
			in:   "疾患の\n解明",
			opts: Options{Lang: "ja", Newlines: NewlineStrip},
			want: "疾患の解明",
		},
		{
			name: "colon gains trailing space",
			in:   "目的:解明",
			opts: Options{},
			want: "目的: 解明",
		},
		{
			name: "url colon untouched",
			in:   "https://example.com/path",
			opts: Options{},
			want: "https://example.com/path",
		},
		{
			name: "english parens keep spacing",
			in:   "whole genome (WGS)",
			opts: Options{Lang: "en"},
			want: "whole genome (WGS)",
		},
		{
			name: "empty input",
			in:   "",
			opts: Options{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in, tt.opts))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string // "" means nil
	}{
		{"2024/1/5", "2024-01-05"},
		{"2024-01-05", "2024-01-05"},
		{"2024年1月5日", "2024-01-05"},
		{"２０２４年１月５日", "2024-01-05"},
		{"2020/12/31", "2020-12-31"},
		{"released 2019/3/7 (updated)", "2019-03-07"},
		{"Coming soon", ""},
		{"coming soon", ""},
		{"未公開", ""},
		{"公開準備中", ""},
		{"", ""},
		{"not a date", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeDate(tt.in)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizePeriod(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		start, end string
	}{
		{"wave dash", "2020/4/1〜2023/3/31", "2020-04-01", "2023-03-31"},
		{"full-width tilde", "2020/4/1～2023/3/31", "2020-04-01", "2023-03-31"},
		{"spaced hyphen", "2020-04-01 - 2023-03-31", "2020-04-01", "2023-03-31"},
		{"english to", "2020/4/1 to 2023/3/31", "2020-04-01", "2023-03-31"},
		{"open ended", "2021/10/1〜", "2021-10-01", ""},
		{"single date keeps hyphens intact", "2020-04-01", "2020-04-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := NormalizePeriod(tt.in)
			if tt.start == "" {
				assert.Nil(t, start)
			} else {
				require.NotNil(t, start)
				assert.Equal(t, tt.start, *start)
			}
			if tt.end == "" {
				assert.Nil(t, end)
			} else {
				require.NotNil(t, end)
				assert.Equal(t, tt.end, *end)
			}
		})
	}
}

func TestNormalizeCriteria(t *testing.T) {
	controlledI := types.CriteriaControlledI
	controlledII := types.CriteriaControlledII
	unrestricted := types.CriteriaUnrestricted

	tests := []struct {
		in   string
		want *types.Criteria
	}{
		{"Controlled-access (Type I)", &controlledI},
		{"Controlled-access (Type II)", &controlledII},
		{"Unrestricted-access", &unrestricted},
		{"制限公開（タイプI）", &controlledI},
		{"制限公開（タイプII）", &controlledII},
		{"制限公開", &controlledI},
		{"非制限公開", &unrestricted},
		{"Type I", &controlledI},
		{"unrestricted access", &unrestricted},
		{"Controlled-access (Type I), Unrestricted-access", &controlledI},
		{"", nil},
		{"something else entirely", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeCriteria(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

// Re-normalizing a canonical value must return itself; every recognized
// phrase maps to exactly one of the three canonical strings.
func TestNormalizeCriteriaIdempotent(t *testing.T) {
	for _, c := range []types.Criteria{
		types.CriteriaControlledI,
		types.CriteriaControlledII,
		types.CriteriaUnrestricted,
	} {
		got := NormalizeCriteria(string(c))
		require.NotNil(t, got, "canonical %q must stay recognized", c)
		assert.Equal(t, c, *got)
	}
}

func TestNormalizePolicy(t *testing.T) {
	tests := []struct {
		name  string
		label string
		href  string
		want  types.PolicyID
	}{
		{"nbdc guideline", "NBDC Human Data Sharing Guidelines", "https://humandbs.dbcls.jp/en/guidelines", types.PolicyNBDC},
		{"company limitation", "営利企業による利用制限", "", types.PolicyCompanyLimitation},
		{"cancer research", "がん研究の目的に限定", "", types.PolicyCancerResearch},
		{"custom fallback keeps label", "Special consortium agreement", "https://example.org/terms", types.PolicyCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePolicy(tt.label, tt.href)
			assert.Equal(t, tt.want, got.ID)
			if tt.want == types.PolicyCustom {
				assert.Equal(t, tt.label, got.Label)
			}
		})
	}
}

func TestDedupePolicies(t *testing.T) {
	in := []types.Policy{
		{ID: types.PolicyNBDC, Label: "NBDC"},
		{ID: types.PolicyNBDC, Label: "NBDC"},
		{ID: types.PolicyCustom, Label: "one"},
		{ID: types.PolicyCustom, Label: "two"},
	}
	out := DedupePolicies(in)
	require.Len(t, out, 3)
	assert.Equal(t, types.PolicyNBDC, out[0].ID)
}
