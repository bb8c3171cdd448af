package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/wallthemes/internal/format"
)

// Runner executes a sequence of stages for one theme at a time.
type Runner struct {
	stages []Stage
	logger *slog.Logger
}

// NewRunner creates a new Runner with the given stages.
func NewRunner(stages []Stage, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stages: stages,
		logger: logger,
	}
}

// Run executes all stages in sequence against state. It stops at the first
// stage that returns an error; that error is recorded on state.Report as a
// fatal error unless the stage already did so, and returned as a StageError
// wrapping report.ErrAbort.
func (r *Runner) Run(ctx context.Context, state *State) (*Result, error) {
	result := &Result{
		StageResults: make(map[string]*StageResult),
	}

	startTime := time.Now()
	defer r.cleanupStages(ctx)

	for i, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			return result, state.Report.Abort(err)
		}

		stageResult, err := r.executeStage(ctx, i, stage, state)
		result.StageResults[stage.ID()] = stageResult

		if err != nil {
			result.Duration = time.Since(startTime)
			return result, NewStageError(stage.ID(), stage.Name(), state.Report.Abort(err))
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	r.logger.DebugContext(ctx, "pipeline completed",
		slog.String("theme_id", state.ThemeID),
		slog.Int("stage_count", len(r.stages)),
		slog.String("duration", format.Duration(result.Duration)),
	)
	return result, nil
}

// executeStage runs a single stage and handles logging.
func (r *Runner) executeStage(ctx context.Context, index int, stage Stage, state *State) (*StageResult, error) {
	stageStart := time.Now()

	r.logger.DebugContext(ctx, "executing stage",
		slog.Int("stage_num", index+1),
		slog.Int("total_stages", len(r.stages)),
		slog.String("stage_id", stage.ID()),
		slog.String("theme_id", state.ThemeID),
	)

	stageResult, err := stage.Execute(ctx, state)
	if stageResult == nil {
		stageResult = &StageResult{}
	}
	stageResult.Duration = time.Since(stageStart)

	if err != nil {
		r.logger.DebugContext(ctx, "stage stopped theme",
			slog.String("stage_id", stage.ID()),
			slog.String("theme_id", state.ThemeID),
			slog.String("error", err.Error()),
		)
		return stageResult, err
	}

	for _, artifact := range stageResult.Artifacts {
		state.AddArtifact(stage.ID(), artifact)
	}

	r.logger.DebugContext(ctx, "stage completed",
		slog.String("stage_id", stage.ID()),
		slog.String("theme_id", state.ThemeID),
		slog.Duration("duration", stageResult.Duration),
		slog.String("records_processed", format.Number(int64(stageResult.RecordsProcessed))),
		slog.Int("artifacts_produced", len(stageResult.Artifacts)),
	)
	return stageResult, nil
}

// cleanupStages calls Cleanup on all stages.
func (r *Runner) cleanupStages(ctx context.Context) {
	for _, stage := range r.stages {
		if err := stage.Cleanup(ctx); err != nil {
			r.logger.Warn("stage cleanup failed",
				slog.String("stage_id", stage.ID()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Stages returns the configured stages.
func (r *Runner) Stages() []Stage {
	return r.stages
}
