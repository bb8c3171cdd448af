// Package artifacts implements the stage that renders thumbnails and
// previews for the catalog.
package artifacts

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/jmylchreest/wallthemes/internal/catalog"
	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/format"
	"github.com/jmylchreest/wallthemes/internal/imaging"
	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/pipeline/shared"
	"github.com/jmylchreest/wallthemes/internal/storage"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

const (
	// StageID is the unique identifier for this stage.
	StageID = "artifacts"
	// StageName is the human-readable name for this stage.
	StageName = "Generate Artifacts"
)

// Stage writes <id>_day.png and <id>_night.png thumbnails and, when a
// previews directory is configured, <id>_<phase>.jpg previews.
type Stage struct {
	shared.BaseStage
	thumbnails *storage.Sandbox
	previews   *storage.Sandbox
	cfg        config.ArtifactsConfig
	logger     *slog.Logger
}

// New creates a new artifacts stage. A nil previews sandbox disables
// previews.
func New(thumbnails, previews *storage.Sandbox, cfg config.ArtifactsConfig) *Stage {
	return &Stage{
		BaseStage:  shared.NewBaseStage(StageID, StageName),
		thumbnails: thumbnails,
		previews:   previews,
		cfg:        cfg,
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		s := New(deps.Thumbnails, deps.Previews, deps.Artifacts)
		if deps.Logger != nil {
			s.logger = deps.Logger.With("stage", StageID)
		}
		return s
	}
}

// Execute renders the thumbnails, recording the day frame's size on state,
// then the previews, recording the generated phases.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()

	m, err := shared.RequireManifest(state)
	if err != nil {
		return result, err
	}
	if s.thumbnails == nil {
		return result, core.NewConfigurationError("thumbnails", "thumbnail directory is required")
	}

	thumbs, size, err := s.generateThumbnails(state, m)
	if err != nil {
		return result, err
	}
	state.ImageSize = size
	result.Artifacts = append(result.Artifacts, thumbs...)

	if s.previews != nil {
		previews, phases, err := s.generatePreviews(ctx, state, m)
		if err != nil {
			return result, err
		}
		state.SunPhases = phases
		result.Artifacts = append(result.Artifacts, previews...)
	}

	result.RecordsProcessed = len(result.Artifacts)
	s.log(ctx, slog.LevelInfo, "generated artifacts",
		slog.Int("count", len(result.Artifacts)),
		slog.String("image_size", format.Dimensions(size[0], size[1])),
	)
	return result, nil
}

// generateThumbnails renders the canonical day and night frames. It returns
// the day frame's size before cropping.
func (s *Stage) generateThumbnails(state *core.State, m *theme.Manifest) ([]core.Artifact, [2]int, error) {
	var size [2]int

	day, err := s.openFrame(state, m, m.DayFrame())
	if err != nil {
		return nil, size, err
	}
	bounds := day.Bounds()
	size = [2]int{bounds.Dx(), bounds.Dy()}

	night, err := s.openFrame(state, m, m.NightFrame())
	if err != nil {
		return nil, size, err
	}

	var out []core.Artifact
	for _, frame := range []struct {
		phase string
		img   image.Image
	}{
		{catalog.PhaseDay, day},
		{catalog.PhaseNight, night},
	} {
		cropped, err := imaging.CropToAspect(frame.img, s.cfg.ThumbnailWidth)
		if err != nil {
			return nil, size, fmt.Errorf("cropping %s thumbnail: %w", frame.phase, err)
		}
		data, err := imaging.PNGBytes(cropped)
		if err != nil {
			return nil, size, fmt.Errorf("encoding %s thumbnail: %w", frame.phase, err)
		}

		name := fmt.Sprintf("%s_%s.png", state.ThemeID, frame.phase)
		a, err := write(s.thumbnails, name, data, core.ArtifactTypeThumbnail, frame.phase)
		if err != nil {
			return nil, size, err
		}
		out = append(out, a)
	}
	return out, size, nil
}

// previewFrames selects the frames to preview, keyed by phase, in fixed
// order. Sunrise and sunset are skipped when absent or when they coincide
// with the day or night frame.
func previewFrames(m *theme.Manifest) []phaseFrame {
	day, night := m.DayFrame(), m.NightFrame()
	distinct := func(id int) bool {
		return id != theme.NoFrame && id != day && id != night
	}

	var frames []phaseFrame
	if id := m.SunriseFrame(); distinct(id) {
		frames = append(frames, phaseFrame{catalog.PhaseSunrise, id})
	}
	frames = append(frames, phaseFrame{catalog.PhaseDay, day})
	if id := m.SunsetFrame(); distinct(id) {
		frames = append(frames, phaseFrame{catalog.PhaseSunset, id})
	}
	frames = append(frames, phaseFrame{catalog.PhaseNight, night})
	return frames
}

type phaseFrame struct {
	phase string
	id    int
}

// generatePreviews renders the selected frames as JPEG and returns the
// phases written.
func (s *Stage) generatePreviews(ctx context.Context, state *core.State, m *theme.Manifest) ([]core.Artifact, []string, error) {
	selected := previewFrames(m)
	out := make([]core.Artifact, 0, len(selected))
	phases := make([]string, 0, len(selected))

	for _, f := range selected {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		img, err := s.openFrame(state, m, f.id)
		if err != nil {
			return nil, nil, err
		}
		cropped, err := imaging.CropToAspect(img, s.cfg.PreviewWidth)
		if err != nil {
			return nil, nil, fmt.Errorf("cropping %s preview: %w", f.phase, err)
		}
		data, err := imaging.JPEGBytes(cropped, s.cfg.PreviewQuality)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s preview: %w", f.phase, err)
		}

		name := fmt.Sprintf("%s_%s.jpg", state.ThemeID, f.phase)
		a, err := write(s.previews, name, data, core.ArtifactTypePreview, f.phase)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, a)
		phases = append(phases, f.phase)
	}
	return out, phases, nil
}

func (s *Stage) openFrame(state *core.State, m *theme.Manifest, id int) (image.Image, error) {
	name := m.FrameFilename(id)
	img, err := imaging.Open(state.Files, name)
	if err != nil {
		return nil, state.Report.Fatalf("Failed to read image %s: %v", name, err)
	}
	return img, nil
}

func write(sb *storage.Sandbox, name string, data []byte, kind core.ArtifactType, phase string) (core.Artifact, error) {
	if err := sb.AtomicWrite(name, data); err != nil {
		return core.Artifact{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return core.NewArtifact(kind, phase, StageID).
		WithFilePath(filepath.Join(sb.BaseDir(), name)).
		WithFileSize(int64(len(data))), nil
}

func (s *Stage) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Log(ctx, level, msg, attrs...)
	}
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
