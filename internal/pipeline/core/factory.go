package core

import (
	"log/slog"

	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/storage"
)

// Dependencies bundles everything stage constructors may need.
type Dependencies struct {
	Logger *slog.Logger

	// Thumbnails and Previews are the artifact output directories. Previews
	// is nil when previews are not generated.
	Thumbnails *storage.Sandbox
	Previews   *storage.Sandbox

	Validation config.ValidationConfig
	Artifacts  config.ArtifactsConfig
}

// StageConstructor is a function that creates a stage given dependencies.
type StageConstructor func(deps *Dependencies) Stage

// Factory creates Runners with a fixed list of stages.
type Factory struct {
	deps              *Dependencies
	stageConstructors []StageConstructor
}

// NewFactory creates a new pipeline Factory.
func NewFactory(deps *Dependencies) *Factory {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Factory{
		deps:              deps,
		stageConstructors: make([]StageConstructor, 0),
	}
}

// RegisterStage adds a stage constructor to the factory.
// Stages are executed in the order they are registered.
func (f *Factory) RegisterStage(constructor StageConstructor) {
	f.stageConstructors = append(f.stageConstructors, constructor)
}

// Create builds a Runner with freshly constructed stages.
func (f *Factory) Create() (*Runner, error) {
	if len(f.stageConstructors) == 0 {
		return nil, NewConfigurationError("stages", "at least one stage is required")
	}

	stages := make([]Stage, 0, len(f.stageConstructors))
	for _, constructor := range f.stageConstructors {
		stages = append(stages, constructor(f.deps))
	}
	return NewRunner(stages, f.deps.Logger), nil
}
