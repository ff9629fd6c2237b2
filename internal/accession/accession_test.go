// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package accession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want Family
	}{
		{"JGAD000123", FamilyJGAD},
		{"JGAS000456", FamilyJGAS},
		{"DRA002903", FamilySRA},
		{"ERA123456", FamilySRA},
		{"SRA012345", FamilySRA},
		{"PRJDB1828", FamilyBioProject},
		{"PRJNA12345", FamilyBioProject},
		{"PRJEB9999", FamilyBioProject},
		{"E-GEAD-123", FamilyGEA},
		{"MTBKS42", FamilyMetabolomics},
		{"hum0042.v1.MTB.freq", FamilyMetabolomics},
		{"JGAD123", FamilyUnknown}, // too few digits
		{"hum0001", FamilyUnknown},
		{"", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.id))
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed families in appearance order",
			text: "NGS data (JGAD000123) and array data (E-GEAD-10, PRJDB1828)",
			want: []string{"JGAD000123", "E-GEAD-10", "PRJDB1828"},
		},
		{
			name: "duplicates removed first wins",
			text: "JGAD000123 JGAD000456 JGAD000123",
			want: []string{"JGAD000123", "JGAD000456"},
		},
		{
			name: "range expanded inline",
			text: "datasets JGAD000106-JGAD000108 released",
			want: []string{"JGAD000106", "JGAD000107", "JGAD000108"},
		},
		{
			name: "historical correction applied before extraction",
			text: "see DRA000318-DRA000542 for details",
			want: []string{"PRJDB1828"},
		},
		{
			name: "no accessions",
			text: "全ゲノムシークエンス解析",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IDs(Extract(tt.text)))
		})
	}
}

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple range",
			in:   "JGAD000106-JGAD000108",
			want: []string{"JGAD000106", "JGAD000107", "JGAD000108"},
		},
		{
			name: "reversed range returned unchanged",
			in:   "JGAD000108-JGAD000106",
			want: []string{"JGAD000108-JGAD000106"},
		},
		{
			name: "mismatched prefixes returned unchanged",
			in:   "JGAD000106-DRA000108",
			want: []string{"JGAD000106-DRA000108"},
		},
		{
			name: "oversized range returned unchanged",
			in:   "DRA000001-DRA001000",
			want: []string{"DRA000001-DRA001000"},
		},
		{
			name: "zero padding preserved",
			in:   "DRA000009-DRA000011",
			want: []string{"DRA000009", "DRA000010", "DRA000011"},
		},
		{
			name: "not a range",
			in:   "JGAD000123",
			want: []string{"JGAD000123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandRange(tt.in))
		})
	}
}

func TestApplyCorrections(t *testing.T) {
	assert.Equal(t, "dataset JGAD000042.", ApplyCorrections("dataset JGAD0000042."))
	assert.Equal(t, "untouched JGAD000999", ApplyCorrections("untouched JGAD000999"))
}

func TestGraphExpand(t *testing.T) {
	g := NewGraph()
	g.AddBlock([]string{"JGAD000001", "JGAD000002", "DRA000100"})
	g.AddBlock([]string{"JGAD000003"})

	t.Run("partial reference completes to block", func(t *testing.T) {
		got := g.Expand([]string{"JGAD000001"})
		assert.Equal(t, []string{"DRA000100", "JGAD000001", "JGAD000002"}, got)
	})

	t.Run("singleton block stays singleton", func(t *testing.T) {
		assert.Equal(t, []string{"JGAD000003"}, g.Expand([]string{"JGAD000003"}))
	})

	t.Run("unknown id passes through", func(t *testing.T) {
		assert.Equal(t, []string{"JGAD999999"}, g.Expand([]string{"JGAD999999"}))
	})

	t.Run("known reports membership", func(t *testing.T) {
		assert.True(t, g.Known("DRA000100"))
		assert.False(t, g.Known("DRA000200"))
	})
}

func TestExpandStudies(t *testing.T) {
	lookup := StudyLookupFunc(func(_ context.Context, jgasID string) ([]string, error) {
		switch jgasID {
		case "JGAS000100":
			return []string{"JGAD000201", "JGAD000202"}, nil
		case "JGAS000200":
			return nil, nil // study exists but lists no datasets
		default:
			return nil, errors.New("lookup unavailable")
		}
	})

	accs := []Accession{
		{ID: "JGAD000001", Family: FamilyJGAD},
		{ID: "JGAS000100", Family: FamilyJGAS},
		{ID: "JGAS000200", Family: FamilyJGAS},
		{ID: "JGAS000300", Family: FamilyJGAS},
	}

	datasetIDs, studyIDs, err := ExpandStudies(context.Background(), lookup, accs)
	require.Error(t, err, "the failed lookup must surface")

	// Expanded studies contribute their datasets; failed or empty
	// lookups keep the study ID in the dataset list so the reference
	// is never silently dropped.
	assert.Contains(t, datasetIDs, "JGAD000001")
	assert.Contains(t, datasetIDs, "JGAD000201")
	assert.Contains(t, datasetIDs, "JGAD000202")
	assert.Contains(t, datasetIDs, "JGAS000200")
	assert.Contains(t, datasetIDs, "JGAS000300")
	assert.NotContains(t, datasetIDs, "JGAS000100")

	// Only the successfully expanded study is recorded as a study.
	assert.Equal(t, []string{"JGAS000100"}, studyIDs)
}

func TestMemoize(t *testing.T) {
	calls := 0
	lookup := Memoize(StudyLookupFunc(func(_ context.Context, jgasID string) ([]string, error) {
		calls++
		if jgasID == "JGAS000900" {
			return nil, errors.New("lookup unavailable")
		}
		return []string{"JGAD000301"}, nil
	}), time.Hour)

	members, err := lookup.Datasets(context.Background(), "JGAS000100")
	require.NoError(t, err)
	assert.Equal(t, []string{"JGAD000301"}, members)

	members, err = lookup.Datasets(context.Background(), "JGAS000100")
	require.NoError(t, err)
	assert.Equal(t, []string{"JGAD000301"}, members)
	assert.Equal(t, 1, calls, "repeat lookups are served from memory")

	// Failures are not cached.
	_, err = lookup.Datasets(context.Background(), "JGAS000900")
	require.Error(t, err)
	_, err = lookup.Datasets(context.Background(), "JGAS000900")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
