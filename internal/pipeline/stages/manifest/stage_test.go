package manifest

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/testutil"
)

func TestStage_LoadsManifest(t *testing.T) {
	fsys, err := testutil.NewSamplePackage().FS()
	require.NoError(t, err)

	collector := report.NewCollector()
	state := core.NewState("lake", fsys, collector.Scope("lake"))

	result, err := New().Execute(context.Background(), state)
	require.NoError(t, err)

	require.NotNil(t, state.Manifest)
	assert.Equal(t, "Mountain Lake", state.Manifest.DisplayName)
	assert.Equal(t, []int{2, 3, 4}, state.Manifest.DayImageList)
	assert.Equal(t, 1, result.RecordsProcessed)
	assert.Zero(t, collector.Len())
}

func TestStage_CustomManifestName(t *testing.T) {
	p := testutil.NewSamplePackage()
	p.ManifestName = "lake.json"
	fsys, err := p.FS()
	require.NoError(t, err)

	state := core.NewState("lake", fsys, report.NewCollector().Scope("lake"))
	state.ManifestName = "lake.json"

	_, err = New().Execute(context.Background(), state)
	require.NoError(t, err)
	assert.NotNil(t, state.Manifest)
}

func TestStage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		message string
	}{
		{
			name:    "missing manifest",
			fsys:    fstest.MapFS{"lake_1.png": {Data: []byte("x")}},
			message: "[lake] Theme package does not contain theme.json file",
		},
		{
			name:    "malformed manifest",
			fsys:    fstest.MapFS{"theme.json": {Data: []byte(`{"dayImageList": [1,}`)}},
			message: "[lake] Failed to load theme.json file: ",
		},
		{
			name:    "wrong types",
			fsys:    fstest.MapFS{"theme.json": {Data: []byte(`{"dayImageList": "1,2"}`)}},
			message: "[lake] Failed to load theme.json file: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := report.NewCollector()
			state := core.NewState("lake", tt.fsys, collector.Scope("lake"))

			_, err := New().Execute(context.Background(), state)
			assert.ErrorIs(t, err, report.ErrAbort)
			assert.Nil(t, state.Manifest)

			require.Equal(t, 1, collector.Len())
			entry := collector.Entries()[0]
			assert.True(t, entry.Fatal)
			assert.Contains(t, entry.String(), tt.message)
		})
	}
}

func TestNewConstructor(t *testing.T) {
	stage := NewConstructor()(&core.Dependencies{})
	assert.Equal(t, StageID, stage.ID())
	assert.Equal(t, StageName, stage.Name())
}
