// Package shared holds helpers used by several pipeline stages.
package shared

import (
	"context"

	"github.com/jmylchreest/wallthemes/internal/pipeline/core"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

// BaseStage provides common functionality for pipeline stages.
// Embed this in stage implementations to get default behaviors.
type BaseStage struct {
	id   string
	name string
}

// NewBaseStage creates a new BaseStage.
func NewBaseStage(id, name string) BaseStage {
	return BaseStage{
		id:   id,
		name: name,
	}
}

// ID returns the stage identifier.
func (b *BaseStage) ID() string {
	return b.id
}

// Name returns the human-readable stage name.
func (b *BaseStage) Name() string {
	return b.name
}

// Cleanup is a no-op default implementation.
func (b *BaseStage) Cleanup(_ context.Context) error {
	return nil
}

// NewResult creates a new StageResult with initialized slices.
func NewResult() *core.StageResult {
	return &core.StageResult{
		Artifacts: make([]core.Artifact, 0),
	}
}

// RequireManifest returns the loaded manifest or core.ErrNoManifest.
func RequireManifest(state *core.State) (*theme.Manifest, error) {
	if state.Manifest == nil {
		return nil, core.ErrNoManifest
	}
	return state.Manifest, nil
}
