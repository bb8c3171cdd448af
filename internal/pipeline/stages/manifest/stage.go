// Package manifest implements the stage that loads a package's manifest.
package manifest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/pipeline/shared"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

const (
	// StageID is the unique identifier for this stage.
	StageID = "manifest"
	// StageName is the human-readable name for this stage.
	StageName = "Load Manifest"
)

// Stage parses the manifest into state.Manifest.
type Stage struct {
	shared.BaseStage
	logger *slog.Logger
}

// New creates a new manifest stage.
func New() *Stage {
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
	}
}

// NewConstructor returns a stage constructor for use with the factory.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		s := New()
		if deps.Logger != nil {
			s.logger = deps.Logger.With("stage", StageID)
		}
		return s
	}
}

// Execute loads state.ManifestName from the package. A missing or malformed
// manifest is fatal.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()

	m, err := theme.LoadManifest(state.Files, state.ManifestName)
	if err != nil {
		if errors.Is(err, theme.ErrNoManifest) {
			return result, state.Report.Fatalf("Theme package does not contain %s file", state.ManifestName)
		}
		return result, state.Report.Fatalf("Failed to load %s file: %v", state.ManifestName, err)
	}

	state.Manifest = m
	result.RecordsProcessed = 1

	s.log(ctx, slog.LevelDebug, "loaded manifest",
		slog.String("display_name", m.DisplayName),
		slog.String("image_filename", m.ImageFilename),
		slog.Int("day_frames", len(m.DayImageList)),
		slog.Int("night_frames", len(m.NightImageList)),
	)
	return result, nil
}

func (s *Stage) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Log(ctx, level, msg, attrs...)
	}
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
