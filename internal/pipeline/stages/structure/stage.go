// Package structure implements the stage that checks a package's manifest
// keys and file set.
package structure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/pipeline/shared"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

const (
	// StageID is the unique identifier for this stage.
	StageID = "structure"
	// StageName is the human-readable name for this stage.
	StageName = "Validate Structure"
)

// Stage validates manifest completeness and the package's file set.
type Stage struct {
	shared.BaseStage
	logger *slog.Logger
}

// New creates a new structure stage.
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

// Execute runs the completeness check and then the file set check.
func (s *Stage) Execute(ctx context.Context, state *core.State) (*core.StageResult, error) {
	result := shared.NewResult()

	m, err := shared.RequireManifest(state)
	if err != nil {
		return result, err
	}

	if err := validateManifestCompleteness(state, m); err != nil {
		return result, err
	}

	checked, err := validateFileSet(state, m)
	result.RecordsProcessed = checked
	if err != nil {
		return result, err
	}

	s.log(ctx, slog.LevelDebug, "package structure valid", slog.Int("files", checked))
	return result, nil
}

// validateManifestCompleteness reports every missing required key in one
// fatal error.
func validateManifestCompleteness(state *core.State, m *theme.Manifest) error {
	if missing := m.MissingKeys(); len(missing) > 0 {
		return state.Report.Fatalf("Required keys are missing from %s: %s", state.ManifestName, strings.Join(missing, ", "))
	}
	return nil
}

// validateFileSet reports root entries that are neither the manifest nor an
// image (non-fatal), then referenced frames that do not exist (fatal). It
// returns the number of root entries examined.
func validateFileSet(state *core.State, m *theme.Manifest) (int, error) {
	entries, err := fs.ReadDir(state.Files, ".")
	if err != nil {
		return 0, fmt.Errorf("listing package files: %w", err)
	}

	var unused []string
	for _, entry := range entries {
		name := entry.Name()
		if name != state.ManifestName && !m.MatchesImage(name) {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		state.Report.Errorf("Unused files in theme package: %s", strings.Join(unused, ", "))
	}

	var missing []string
	for _, id := range m.ReferencedFrames() {
		name := m.FrameFilename(id)
		ok, err := isFile(state.Files, name)
		if err != nil {
			return len(entries), fmt.Errorf("checking %s: %w", name, err)
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return len(entries), state.Report.Fatalf("Missing image files in theme package: %s", strings.Join(missing, ", "))
	}
	return len(entries), nil
}

func isFile(fsys fs.FS, name string) (bool, error) {
	if !fs.ValidPath(name) {
		return false, nil
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *Stage) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Log(ctx, level, msg, attrs...)
	}
}

// Ensure Stage implements core.Stage.
var _ core.Stage = (*Stage)(nil)
