package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	domainrun "github.com/target/harvester-api/internal/domain/run"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/observability/metrics"
	"github.com/target/harvester-api/internal/observability/statsd"
)

// RunServiceOptions groups dependencies for RunService.
type RunServiceOptions struct {
	Repo    core.RunRepository // Required
	Jobs    core.JobRepository // Required: parent lookups and last_run_at
	Runtime RunRuntime         // Optional: metrics, clock and logger
}

// RunRuntime carries the optional collaborators of RunService.
type RunRuntime struct {
	Metrics statsd.Sink
	Now     func() time.Time
	Logger  *slog.Logger
}

// RunService owns the run lifecycle.
type RunService struct {
	repo    core.RunRepository
	jobs    core.JobRepository
	metrics statsd.Sink
	now     func() time.Time
	logger  *slog.Logger
}

// NewRunService constructs a new RunService.
func NewRunService(opts RunServiceOptions) *RunService {
	if opts.Repo == nil {
		panic("RunRepository is required")
	}
	if opts.Jobs == nil {
		panic("JobRepository is required")
	}
	now := opts.Runtime.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Runtime.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		repo:    opts.Repo,
		jobs:    opts.Jobs,
		metrics: opts.Runtime.Metrics,
		now:     now,
		logger:  logger.With("component", "run_service"),
	}
}

// Create creates a queued run for an existing job.
func (s *RunService) Create(ctx context.Context, req *model.CreateRunRequest) (*model.Run, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := requireParent(ctx, req.JobID, "job_id", s.jobs.GetByID); err != nil {
		return nil, err
	}
	run, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// GetByID returns a run.
func (s *RunService) GetByID(ctx context.Context, id string) (*model.Run, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns runs filtered by job and status.
func (s *RunService) List(ctx context.Context, opts model.RunListOptions) ([]*model.Run, int, error) {
	runs, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	return runs, total, nil
}

// Update records fields reported by the execution engine. Status may be set to
// any known value; lifecycle rules apply only to Trigger. A status change that
// is not a lifecycle edge is logged and counted but still applied.
func (s *RunService) Update(ctx context.Context, id string, req model.UpdateRunRequest) (*model.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var prev model.RunStatus
	if req.Status != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get run: %w", err)
		}
		prev = current.Status
	}
	run, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}
	if req.Status != nil {
		s.noteStatusUpdate(ctx, run.ID, prev, run.Status)
	}
	return run, nil
}

func (s *RunService) noteStatusUpdate(ctx context.Context, id string, from, to model.RunStatus) {
	if from == to {
		return
	}
	lifecycle := metrics.LifecycleOnGraph
	if !domainrun.CanTransition(from, to) {
		lifecycle = metrics.LifecycleOffGraph
		s.logger.WarnContext(ctx, "run status set outside lifecycle",
			"run_id", id, "from", string(from), "to", string(to))
	}
	metrics.EmitRunStatusUpdate(s.metrics, metrics.RunStatusUpdate{
		From:      string(from),
		To:        string(to),
		Lifecycle: lifecycle,
	})
}

// Delete removes a run that has no results.
func (s *RunService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Trigger moves a queued or failed run to running. Runs that are running or
// succeeded are rejected with InvalidTransition and left unchanged. started_at and
// finished_at are not touched.
func (s *RunService) Trigger(ctx context.Context, id string) (*model.TriggerResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if err := domainrun.CheckTrigger(current.Status); err != nil {
		s.emitTransition(current.Status, metrics.ResultRejected, err)
		return nil, err
	}

	run, err := s.repo.TransitionStatus(ctx, core.TransitionParams{
		ID:   id,
		From: domainrun.TriggerableStates(),
		To:   model.RunStatusRunning,
	})
	if err != nil {
		result := metrics.ResultError
		if apperrors.IsInvalidTransition(err) {
			// Another trigger won the race between the read and the write.
			result = metrics.ResultRejected
		}
		s.emitTransition(current.Status, result, err)
		return nil, fmt.Errorf("trigger run: %w", err)
	}
	s.emitTransition(current.Status, metrics.ResultSuccess, nil)

	if run.JobID != nil {
		if markErr := s.jobs.MarkRun(ctx, *run.JobID, s.now()); markErr != nil {
			s.logger.WarnContext(ctx, "failed to record job last_run_at",
				"run_id", run.ID, "job_id", *run.JobID, "error", markErr)
		}
	}
	s.logger.InfoContext(ctx, "run triggered", "run_id", run.ID, "from", string(current.Status))

	return &model.TriggerResponse{Message: domainrun.TriggerMessage, RunID: run.ID}, nil
}

func (s *RunService) emitTransition(from model.RunStatus, result string, err error) {
	metrics.EmitRunTransition(s.metrics, metrics.RunTransition{
		From:   string(from),
		To:     string(model.RunStatusRunning),
		Result: result,
		Err:    err,
	})
}
