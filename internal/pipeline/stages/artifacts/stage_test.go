package artifacts

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wallthemes/internal/archive"
	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/storage"
	"github.com/jmylchreest/wallthemes/internal/testutil"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

func testConfig() config.ArtifactsConfig {
	return config.ArtifactsConfig{ThumbnailWidth: 48, PreviewWidth: 96, PreviewQuality: 75}
}

type fixture struct {
	thumbnails *storage.Sandbox
	previews   *storage.Sandbox
	collector  *report.Collector
	state      *core.State
}

func newFixture(t *testing.T, p *testutil.SamplePackage, withPreviews bool) *fixture {
	t.Helper()
	fsys, err := p.FS()
	require.NoError(t, err)
	m, err := theme.LoadManifest(fsys, "theme.json")
	require.NoError(t, err)

	thumbs, err := storage.NewSandbox(filepath.Join(t.TempDir(), "thumbnails"))
	require.NoError(t, err)

	f := &fixture{thumbnails: thumbs, collector: report.NewCollector()}
	if withPreviews {
		f.previews, err = storage.NewSandbox(filepath.Join(t.TempDir(), "previews"))
		require.NoError(t, err)
	}

	f.state = core.NewState("lake", fsys, f.collector.Scope("lake"))
	f.state.Manifest = m
	return f
}

func (f *fixture) run(t *testing.T) (*core.StageResult, error) {
	t.Helper()
	return New(f.thumbnails, f.previews, testConfig()).Execute(context.Background(), f.state)
}

func decodeSize(t *testing.T, path string) (int, int, string) {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	cfg, format, err := image.DecodeConfig(file)
	require.NoError(t, err)
	return cfg.Width, cfg.Height, format
}

func TestStage_Thumbnails(t *testing.T) {
	f := newFixture(t, testutil.NewSamplePackage().WithSize(80, 60), false)

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Zero(t, f.collector.Len())

	assert.Equal(t, [2]int{80, 60}, f.state.ImageSize)
	assert.Nil(t, f.state.SunPhases)
	require.Len(t, result.Artifacts, 2)

	for i, phase := range []string{"day", "night"} {
		a := result.Artifacts[i]
		assert.Equal(t, core.ArtifactTypeThumbnail, a.Type)
		assert.Equal(t, phase, a.Phase)
		assert.Equal(t, StageID, a.CreatedBy)
		assert.Equal(t, filepath.Join(f.thumbnails.BaseDir(), "lake_"+phase+".png"), a.FilePath)

		info, err := os.Stat(a.FilePath)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), a.FileSize)

		w, h, format := decodeSize(t, a.FilePath)
		assert.Equal(t, "png", format)
		assert.Equal(t, 48, w)
		assert.Equal(t, 27, h)
	}
}

func TestStage_Previews(t *testing.T) {
	tests := []struct {
		name     string
		sunrise  []int
		sunset   []int
		expected []string
	}{
		{
			name:     "day and night only",
			expected: []string{"day", "night"},
		},
		{
			name:     "all phases",
			sunrise:  []int{1, 2, 3},
			sunset:   []int{4},
			expected: []string{"sunrise", "day", "sunset", "night"},
		},
		{
			name:     "sunrise equal to day frame",
			sunrise:  []int{3},
			sunset:   []int{4},
			expected: []string{"day", "sunset", "night"},
		},
		{
			name:     "sunset equal to night frame",
			sunset:   []int{5, 1},
			expected: []string{"day", "night"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewSamplePackage()
			if tt.sunrise != nil {
				p.Set("sunriseImageList", tt.sunrise)
			}
			if tt.sunset != nil {
				p.Set("sunsetImageList", tt.sunset)
			}
			f := newFixture(t, p, true)

			result, err := f.run(t)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.state.SunPhases)

			var previews []core.Artifact
			for _, a := range result.Artifacts {
				if a.Type == core.ArtifactTypePreview {
					previews = append(previews, a)
				}
			}
			require.Len(t, previews, len(tt.expected))
			for i, phase := range tt.expected {
				assert.Equal(t, phase, previews[i].Phase)
				path := filepath.Join(f.previews.BaseDir(), "lake_"+phase+".jpg")
				assert.Equal(t, path, previews[i].FilePath)

				w, h, format := decodeSize(t, path)
				assert.Equal(t, "jpeg", format)
				assert.Equal(t, 96, w)
				assert.Equal(t, 54, h)
			}
		})
	}
}

func TestStage_PreviewsUseHighlights(t *testing.T) {
	p := testutil.NewSamplePackage().
		Set("dayHighlight", 4).
		Set("sunriseImageList", []int{4})
	f := newFixture(t, p, true)

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"day", "night"}, f.state.SunPhases)
}

func TestStage_MissingFrameIsFatal(t *testing.T) {
	p := testutil.NewSamplePackage()
	delete(p.Frames, 1)
	f := newFixture(t, p, true)

	_, err := f.run(t)
	assert.ErrorIs(t, err, report.ErrAbort)
	require.Equal(t, 1, f.collector.Len())
	assert.Contains(t, f.collector.Messages()[0], "[lake] Failed to read image lake_1.png: ")

	entries, err := os.ReadDir(f.previews.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStage_RequiresThumbnailDir(t *testing.T) {
	f := newFixture(t, testutil.NewSamplePackage(), false)
	f.thumbnails = nil

	_, err := f.run(t)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestPreviewFrames_NoListsStillSelectsDayAndNight(t *testing.T) {
	m := &theme.Manifest{ImageFilename: "x_*.jpg", DayImageList: []int{7}, NightImageList: []int{9}}
	assert.Equal(t, []phaseFrame{{"day", 7}, {"night", 9}}, previewFrames(m))
}

// renderFrom runs the stage over fsys and returns the written files by name.
func renderFrom(t *testing.T, fsys fs.FS) map[string][]byte {
	t.Helper()
	m, err := theme.LoadManifest(fsys, theme.ManifestFilename)
	require.NoError(t, err)

	thumbs, err := storage.NewSandbox(filepath.Join(t.TempDir(), "thumbnails"))
	require.NoError(t, err)
	previews, err := storage.NewSandbox(filepath.Join(t.TempDir(), "previews"))
	require.NoError(t, err)

	collector := report.NewCollector()
	state := core.NewState("lake", fsys, collector.Scope("lake"))
	state.Manifest = m

	result, err := New(thumbs, previews, testConfig()).Execute(context.Background(), state)
	require.NoError(t, err)
	require.Zero(t, collector.Len())

	files := make(map[string][]byte, len(result.Artifacts))
	for _, a := range result.Artifacts {
		data, err := os.ReadFile(a.FilePath)
		require.NoError(t, err)
		files[filepath.Base(a.FilePath)] = data
	}
	return files
}

func TestStage_ArchiveAndExtractedSourcesMatch(t *testing.T) {
	pkg := filepath.Join(t.TempDir(), "lake.ddw")
	require.NoError(t, testutil.NewSamplePackage().WithSize(80, 60).Set("sunsetImageList", []int{4}).WriteZip(pkg))

	rc, err := archive.Open(pkg)
	require.NoError(t, err)
	defer rc.Close()
	fromArchive := renderFrom(t, rc)

	dir := t.TempDir()
	_, err = (&archive.Extractor{}).Extract(pkg, dir)
	require.NoError(t, err)
	fromDir := renderFrom(t, os.DirFS(dir))

	assert.Contains(t, fromArchive, "lake_day.png")
	assert.Contains(t, fromArchive, "lake_night.png")
	assert.Contains(t, fromArchive, "lake_sunset.jpg")
	assert.Equal(t, fromDir, fromArchive)
}
