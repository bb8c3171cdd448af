// Package visual implements the stage that inspects image content: the
// resolution and orientation of the first day frame and the position of the
// brightest and darkest frames.
package visual

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/format"
	"github.com/jmylchreest/wallthemes/internal/imaging"
	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/pipeline/shared"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

const (
	// StageID is the unique identifier for this stage.
	StageID = "visual"
	// StageName is the human-readable name for this stage.
	StageName = "Validate Images"
)

// Stage runs the visual checks. Every finding is non-fatal; only unreadable
// images stop the theme.
type Stage struct {
	shared.BaseStage
	cfg    config.ValidationConfig
	logger *slog.Logger
}

// New creates a new visual stage.
func New(cfg config.ValidationConfig) *Stage {
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		cfg:       cfg,
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		s := New(deps.Validation)
		if deps.Logger != nil {
			s.logger = deps.Logger.With("stage", StageID)
		}
		return s
	}
}

// Execute runs the resolution check and, when enabled, the brightness check.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()

	m, err := shared.RequireManifest(state)
	if err != nil {
		return result, err
	}

	if err := s.validateResolution(ctx, state, m); err != nil {
		return result, err
	}
	result.RecordsProcessed = 1

	if !s.cfg.CheckBrightness {
		s.log(ctx, slog.LevelDebug, "brightness check disabled")
		return result, nil
	}

	frames, err := s.validateBrightnessOrdering(ctx, state, m)
	result.RecordsProcessed += frames
	return result, err
}

// validateResolution checks the first day frame's size and orientation.
func (s *Stage) validateResolution(ctx context.Context, state *core.State, m *theme.Manifest) error {
	if len(m.DayImageList) == 0 {
		return nil
	}
	name := m.FrameFilename(m.DayImageList[0])
	width, height, err := imaging.Dimensions(state.Files, name)
	if err != nil {
		return state.Report.Fatalf("Failed to read image %s: %v", name, err)
	}

	s.log(ctx, slog.LevelDebug, "checked resolution",
		slog.String("file", name),
		slog.String("size", format.Dimensions(width, height)),
	)

	if width < s.cfg.MinWidth || height < s.cfg.MinHeight {
		state.Report.Errorf("Image size is too small (must be at least %s)", format.Dimensions(s.cfg.MinWidth, s.cfg.MinHeight))
	}
	if width < height {
		state.Report.Errorf("Image orientation is portrait (must be landscape or square)")
	}
	return nil
}

// validateBrightnessOrdering compares the 1-based positions of the brightest
// and darkest frames with the expected day and night frames. It returns the
// number of frames measured.
func (s *Stage) validateBrightnessOrdering(ctx context.Context, state *core.State, m *theme.Manifest) (int, error) {
	frames, unnumbered, err := m.ListFrames(state.Files)
	if err != nil {
		return 0, err
	}
	if len(unnumbered) > 0 {
		state.Report.Errorf("Image files without a frame number: %s", strings.Join(unnumbered, ", "))
	}
	if len(frames) == 0 {
		return 0, nil
	}

	brightest, darkest := 0, 0
	var maxLuma, minLuma float64
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		img, err := imaging.Open(state.Files, frame.Name)
		if err != nil {
			return i, state.Report.Fatalf("Failed to read image %s: %v", frame.Name, err)
		}
		luma := imaging.MeanLuma(img)

		s.log(ctx, observability.LevelTrace, "measured frame",
			slog.String("file", frame.Name),
			slog.Float64("mean_luma", luma),
		)

		// Strict comparisons keep the first frame on ties.
		if i == 0 || luma > maxLuma {
			maxLuma, brightest = luma, i+1
		}
		if i == 0 || luma < minLuma {
			minLuma, darkest = luma, i+1
		}
	}

	if expected := m.DayFrame(); !s.withinTolerance(brightest, expected) {
		state.Report.Errorf("Brightest image is %d, expected %d", brightest, expected)
	}
	if expected := m.NightFrame(); !s.withinTolerance(darkest, expected) {
		state.Report.Errorf("Darkest image is %d, expected %d", darkest, expected)
	}
	return len(frames), nil
}

func (s *Stage) withinTolerance(actual, expected int) bool {
	return actual >= expected-s.cfg.BrightnessTolerance && actual <= expected+s.cfg.BrightnessTolerance
}

func (s *Stage) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Log(ctx, level, msg, attrs...)
	}
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
