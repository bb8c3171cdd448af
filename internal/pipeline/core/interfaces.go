// Package core provides the per-theme pipeline framework: the Stage
// interface, the shared State and the Runner that executes stages in order.
package core

import (
	"context"
	"io/fs"
	"time"

	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/theme"
)

// Stage represents a single step in processing one theme package.
type Stage interface {
	// ID returns a unique identifier for the stage (e.g., "structure").
	ID() string

	// Name returns a human-readable name for the stage.
	Name() string

	// Execute performs the stage's work. Problems with the package are
	// recorded on state.Report; a returned error stops the pipeline for this
	// theme.
	Execute(ctx context.Context, state *State) (*StageResult, error)

	// Cleanup performs any necessary cleanup after execution.
	// Called regardless of success or failure.
	Cleanup(ctx context.Context) error
}

// State holds all data shared between the stages processing one theme.
type State struct {
	// ThemeID is the catalog identifier of the theme.
	ThemeID string

	// Files is the package content: an extracted directory or the archive.
	Files fs.FS

	// ManifestName is the manifest's file name inside Files.
	ManifestName string

	// Manifest is set by the manifest stage.
	Manifest *theme.Manifest

	// Report records errors attributed to this theme.
	Report *report.Scope

	// ImageSize is the pre-crop size of the canonical day frame, set when
	// thumbnails are generated.
	ImageSize [2]int

	// SunPhases lists the generated previews in sunrise, day, sunset, night
	// order. Nil when previews were not generated.
	SunPhases []string

	// StartTime records when pipeline execution began.
	StartTime time.Time

	// Artifacts holds files produced by each stage.
	Artifacts map[string][]Artifact
}

// NewState creates the state for processing themeID from files.
func NewState(themeID string, files fs.FS, scope *report.Scope) *State {
	return &State{
		ThemeID:      themeID,
		Files:        files,
		ManifestName: theme.ManifestFilename,
		Report:       scope,
		StartTime:    time.Now(),
		Artifacts:    make(map[string][]Artifact),
	}
}

// Duration returns the elapsed time since pipeline start.
func (s *State) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// AddArtifact adds an artifact produced by a stage.
func (s *State) AddArtifact(stageID string, artifact Artifact) {
	s.Artifacts[stageID] = append(s.Artifacts[stageID], artifact)
}

// StageResult contains the outcome of a stage execution.
type StageResult struct {
	// Artifacts produced by this stage.
	Artifacts []Artifact

	// RecordsProcessed is the count of items (files, frames) examined.
	RecordsProcessed int

	// Duration is the execution time.
	Duration time.Duration

	// Message is an optional summary message.
	Message string
}

// Result represents the outcome of running the pipeline for one theme.
type Result struct {
	// Success is false when a stage stopped the pipeline.
	Success bool

	// Duration is the total execution time.
	Duration time.Duration

	// StageResults contains results from each executed stage.
	StageResults map[string]*StageResult
}
