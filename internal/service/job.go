package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/jobconfig"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo      core.JobRepository     // Required
	Projects  core.ProjectRepository // Required: parent lookups
	Validator *jobconfig.Validator   // Optional: defaults to jobconfig.New with default limits
	Logger    *slog.Logger           // Optional
}

// JobService validates job configuration before it reaches the store.
type JobService struct {
	repo      core.JobRepository
	projects  core.ProjectRepository
	validator *jobconfig.Validator
	logger    *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) *JobService {
	if opts.Repo == nil {
		panic("JobRepository is required")
	}
	if opts.Projects == nil {
		panic("ProjectRepository is required")
	}
	validator := opts.Validator
	if validator == nil {
		validator = jobconfig.New(jobconfig.Options{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		repo:      opts.Repo,
		projects:  opts.Projects,
		validator: validator,
		logger:    logger.With("component", "job_service"),
	}
}

// Create parses raw_yaml, checks the parent project and stores the job.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	parsed, err := s.validator.Validate(req.RawYAML)
	if err != nil {
		return nil, err
	}
	req.ParsedYAML = parsed

	if req.ProjectID != nil {
		if err := requireParent(ctx, *req.ProjectID, "project_id", s.projects.GetByID); err != nil {
			return nil, err
		}
	}

	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// GetByID returns a job.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs, optionally filtered by project.
func (s *JobService) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, int, error) {
	jobs, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

// Update applies a partial update. When raw_yaml is supplied it is parsed first;
// a parse failure returns before the store is touched, so the stored job is unchanged.
func (s *JobService) Update(ctx context.Context, id string, req model.UpdateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RawYAML != nil {
		parsed, err := s.validator.Validate(req.RawYAML)
		if err != nil {
			s.logger.DebugContext(ctx, "rejected job config", "job_id", id, "error", err)
			return nil, err
		}
		req.ParsedYAML = parsed
	}

	job, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// Delete removes a job that has no runs.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	s.logger.InfoContext(ctx, "job deleted", "job_id", id)
	return nil
}

// requireParent checks that a parent id named in a create request exists. A missing
// parent is NotFound; a malformed one is a validation error on field.
func requireParent[T any](
	ctx context.Context,
	id, field string,
	get func(context.Context, string) (T, error),
) error {
	if uuid.Validate(id) != nil {
		return apperrors.ValidationField(field, field+" must be a valid UUID")
	}
	if _, err := get(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFoundf("%s %s does not exist", field, id)
		}
		return fmt.Errorf("lookup %s: %w", field, err)
	}
	return nil
}
