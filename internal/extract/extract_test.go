// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub003/internal/jsonio"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

func init() {
	retryDelay = time.Millisecond
}

// mockBackend returns canned fields keyed by a substring of the prompt.
type mockBackend struct {
	mu       sync.Mutex
	calls    int
	err      error
	failPast int // error after this many calls when err is set
	fields   types.SearchableExperimentFields
}

func (m *mockBackend) Extract(_ context.Context, prompt string) (types.SearchableExperimentFields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && m.calls > m.failPast {
		return types.SearchableExperimentFields{}, m.err
	}
	f := m.fields
	if f.IsEmpty() {
		f = types.SearchableExperimentFields{AssayType: "WGS", Tissue: "blood"}
	}
	if i := strings.Index(prompt, "Identifier:"); i >= 0 {
		line := prompt[i:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		f.Platform = strings.TrimSpace(strings.TrimPrefix(line, "Identifier:"))
	}
	return f, nil
}

func bilingualPair(ja, en string) types.BilingualText {
	return types.NewBilingualText(types.StringPtr(ja), types.StringPtr(en))
}

func datasetFixture(id string, version int) *types.Dataset {
	return &types.Dataset{
		DatasetID:    id,
		Version:      version,
		HumID:        "hum0001",
		HumVersionID: "hum0001.v1",
		Experiments: []types.Experiment{
			{Header: bilingualPair("実験1", "Experiment 1")},
			{Header: bilingualPair("実験2", "Experiment 2")},
		},
	}
}

func writeDataset(t *testing.T, dir string, d *types.Dataset) string {
	t.Helper()
	name := fmt.Sprintf("%s-%d.json", d.DatasetID, d.Version)
	require.NoError(t, jsonio.Write(filepath.Join(dir, name), d))
	return name
}

func testConfig(in, out string) types.ExtractionConfig {
	return types.ExtractionConfig{
		EnrichedDir:           in,
		OutDir:                out,
		DatasetConcurrency:    2,
		ExperimentConcurrency: 2,
		LatestOnly:            true,
	}
}

func TestRunAll(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))
	writeDataset(t, in, datasetFixture("DRA000100", 1))

	backend := &mockBackend{}
	e := New(backend, testConfig(in, out), nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Extracted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.EmptyExperiments)
	assert.Equal(t, 4, backend.calls)

	var d types.Dataset
	require.NoError(t, jsonio.Read(filepath.Join(out, "JGAD000001-1.json"), &d))
	require.Len(t, d.Experiments, 2)
	for i := range d.Experiments {
		require.NotNil(t, d.Experiments[i].Searchable)
		assert.False(t, d.Experiments[i].Searchable.IsEmpty())
	}
}

func TestRunAllResume(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	backend := &mockBackend{}
	e := New(backend, testConfig(in, out), nil)

	_, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	firstCalls := backend.calls

	// A rerun finds the output populated and issues no calls.
	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Extracted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, firstCalls, backend.calls)
}

func TestRunAllForce(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	backend := &mockBackend{}
	cfg := testConfig(in, out)
	e := New(backend, cfg, nil)
	_, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)

	cfg.Force = true
	summary, err := RunAll(context.Background(), New(backend, cfg, nil), Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 4, backend.calls)
}

func TestRunAllLatestOnly(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))
	writeDataset(t, in, datasetFixture("JGAD000001", 2))

	backend := &mockBackend{}
	e := New(backend, testConfig(in, out), nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)

	// Only the latest version is extracted; the older file is mirrored
	// untouched so the output set stays complete.
	var d types.Dataset
	require.NoError(t, jsonio.Read(filepath.Join(out, "JGAD000001-2.json"), &d))
	require.NotNil(t, d.Experiments[0].Searchable)
	require.NoError(t, jsonio.Read(filepath.Join(out, "JGAD000001-1.json"), &d))
	assert.Nil(t, d.Experiments[0].Searchable)
}

func TestRunAllAllVersions(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))
	writeDataset(t, in, datasetFixture("JGAD000001", 2))

	cfg := testConfig(in, out)
	cfg.LatestOnly = false
	e := New(&mockBackend{}, cfg, nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Extracted)
}

func TestRunAllDryRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	cfg := testConfig(in, out)
	cfg.DryRun = true
	backend := &mockBackend{}
	e := New(backend, cfg, nil)

	var buf strings.Builder
	summary, err := RunAll(context.Background(), e, Filter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Extracted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, backend.calls)
	assert.Contains(t, buf.String(), "would extract")

	// Dry runs write nothing.
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunAllFilter(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))
	writeDataset(t, in, datasetFixture("DRA000100", 1))

	backend := &mockBackend{}
	e := New(backend, testConfig(in, out), nil)

	summary, err := RunAll(context.Background(), e, Filter{DatasetID: "JGAD000001"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 2, backend.calls)

	// The filtered-out file is still mirrored for downstream stages.
	_, err = os.Stat(filepath.Join(out, "DRA000100-1.json"))
	assert.NoError(t, err)
}

func TestRunAllFailedCallsLeaveSentinel(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	backend := &mockBackend{err: errors.New("rate limited")}
	e := New(backend, testConfig(in, out), nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)

	// Call failures degrade to the empty sentinel, not a dataset failure.
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.EmptyExperiments)

	var d types.Dataset
	require.NoError(t, jsonio.Read(filepath.Join(out, "JGAD000001-1.json"), &d))
	for i := range d.Experiments {
		require.NotNil(t, d.Experiments[i].Searchable)
		assert.True(t, d.Experiments[i].Searchable.IsEmpty())
	}
}

func TestRunAllRetryFailed(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	// Prior run: experiment 0 succeeded, experiment 1 holds the sentinel.
	prior := datasetFixture("JGAD000001", 1)
	prior.Experiments[0].Searchable = &types.SearchableExperimentFields{
		AssayType: "RNA-seq",
		Platform:  "prior success",
	}
	prior.Experiments[1].Searchable = &types.SearchableExperimentFields{}
	writeDataset(t, out, prior)

	backend := &mockBackend{}
	cfg := testConfig(in, out)
	cfg.RetryFailed = true
	e := New(backend, cfg, nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 1, backend.calls)

	var d types.Dataset
	require.NoError(t, jsonio.Read(filepath.Join(out, "JGAD000001-1.json"), &d))
	// The prior success is untouched; only the sentinel slot was redone.
	assert.Equal(t, "prior success", d.Experiments[0].Searchable.Platform)
	assert.Equal(t, "RNA-seq", d.Experiments[0].Searchable.AssayType)
	require.NotNil(t, d.Experiments[1].Searchable)
	assert.False(t, d.Experiments[1].Searchable.IsEmpty())
}

func TestRunAllRetryFailedNothingToRetry(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDataset(t, in, datasetFixture("JGAD000001", 1))

	prior := datasetFixture("JGAD000001", 1)
	for i := range prior.Experiments {
		prior.Experiments[i].Searchable = &types.SearchableExperimentFields{Tissue: "blood"}
	}
	writeDataset(t, out, prior)

	backend := &mockBackend{}
	cfg := testConfig(in, out)
	cfg.RetryFailed = true
	e := New(backend, cfg, nil)

	summary, err := RunAll(context.Background(), e, Filter{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, backend.calls)
}

func TestCallWithRetry(t *testing.T) {
	backend := &mockBackend{err: errors.New("transient"), failPast: 0}

	_, err := callWithRetry(context.Background(), backend, "prompt", 2)
	require.Error(t, err)
	assert.Equal(t, 3, backend.calls)
	assert.Contains(t, err.Error(), "transient")
}

func TestCallWithRetryRecovers(t *testing.T) {
	// Succeeds once the transient error clears.
	backend := &recoveringBackend{failures: 2}

	fields, err := callWithRetry(context.Background(), backend, "prompt", 3)
	require.NoError(t, err)
	assert.Equal(t, "WGS", fields.AssayType)
	assert.Equal(t, 3, backend.calls)
}

type recoveringBackend struct {
	failures int
	calls    int
}

func (r *recoveringBackend) Extract(_ context.Context, _ string) (types.SearchableExperimentFields, error) {
	r.calls++
	if r.calls <= r.failures {
		return types.SearchableExperimentFields{}, errors.New("transient")
	}
	return types.SearchableExperimentFields{AssayType: "WGS"}, nil
}

func TestCallWithRetryContextCancelled(t *testing.T) {
	backend := &mockBackend{err: errors.New("down")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := callWithRetry(ctx, backend, "prompt", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, backend.calls)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}
