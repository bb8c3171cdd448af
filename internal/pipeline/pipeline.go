// Package pipeline assembles the per-theme stage pipelines used by each run
// mode. Each stage implements the Stage interface and operates on shared
// State.
//
// The pipeline is organized into several sub-packages:
//   - core: Runner, interfaces, and base types
//   - shared: Utilities shared between stages
//   - stages/*: Individual stage implementations
package pipeline

import (
	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/pipeline/stages/artifacts"
	"github.com/jmylchreest/wallthemes/internal/pipeline/stages/manifest"
	"github.com/jmylchreest/wallthemes/internal/pipeline/stages/structure"
	"github.com/jmylchreest/wallthemes/internal/pipeline/stages/visual"
)

// Re-export core types for convenience.
type (
	// State holds shared data between stages.
	State = core.State

	// Runner executes stages in sequence.
	Runner = core.Runner

	// Factory creates runners.
	Factory = core.Factory

	// Dependencies bundles stage dependencies.
	Dependencies = core.Dependencies
)

// NewState creates a new pipeline state.
var NewState = core.NewState

// NewValidateFactory creates a factory for pull request validation: the
// manifest is loaded and checked, images are inspected, nothing is written.
func NewValidateFactory(deps *Dependencies) *Factory {
	factory := core.NewFactory(deps)
	factory.RegisterStage(manifest.NewConstructor())
	factory.RegisterStage(structure.NewConstructor())
	factory.RegisterStage(visual.NewConstructor())
	return factory
}

// NewPublishFactory creates a factory for publishing: the manifest is loaded
// and thumbnails and previews are rendered. Packages reaching this point
// were validated when their source entry was proposed.
func NewPublishFactory(deps *Dependencies) *Factory {
	factory := core.NewFactory(deps)
	factory.RegisterStage(manifest.NewConstructor())
	factory.RegisterStage(artifacts.NewConstructor())
	return factory
}

// NewPrivateFactory creates a factory for pre-downloaded private packages.
// Previews are never rendered for them.
func NewPrivateFactory(deps *Dependencies) *Factory {
	privateDeps := *deps
	privateDeps.Previews = nil

	factory := core.NewFactory(&privateDeps)
	factory.RegisterStage(manifest.NewConstructor())
	factory.RegisterStage(artifacts.NewConstructor())
	return factory
}
