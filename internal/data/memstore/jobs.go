package memstore

import (
	"context"
	"time"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

type jobRecord = model.Job

var _ core.JobRepository = (*JobRepo)(nil)

// JobRepo is the job view of a Store.
type JobRepo struct{ s *Store }

// Jobs returns the job repository.
func (s *Store) Jobs() *JobRepo { return &JobRepo{s: s} }

func cloneJob(j model.Job) *model.Job {
	j.ProjectID = cloneStr(j.ProjectID)
	j.RawYAML = cloneStr(j.RawYAML)
	j.ParsedYAML = j.ParsedYAML.Clone()
	j.LastRunAt = cloneTime(j.LastRunAt)
	return &j
}

func jobNotFound() error { return apperrors.NotFound("job not found") }

// Create inserts a new job.
func (r *JobRepo) Create(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if req.ProjectID != nil {
		if _, ok := r.s.projects.get(*req.ProjectID); !ok {
			return nil, apperrors.ReferenceNotFound("project_id", "referenced project does not exist")
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	now := r.s.timestamp()
	j := model.Job{
		ID:         r.s.newID(),
		ProjectID:  cloneStr(req.ProjectID),
		Name:       req.Name,
		RawYAML:    cloneStr(req.RawYAML),
		ParsedYAML: req.ParsedYAML.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
		IsActive:   active,
	}
	r.s.jobs.insert(j.ID, j)
	return cloneJob(j), nil
}

// GetByID retrieves a job by ID.
func (r *JobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs.get(id)
	if !ok {
		return nil, jobNotFound()
	}
	return cloneJob(j), nil
}

// List retrieves jobs matching the options.
func (r *JobRepo) List(_ context.Context, opts model.JobListOptions) ([]*model.Job, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.jobs.filter(func(j model.Job) bool {
		return opts.ProjectID == nil || eqStr(j.ProjectID, *opts.ProjectID)
	})
	page := paginate(matched, opts.Limit, opts.Offset)
	out := make([]*model.Job, len(page))
	for i := range page {
		out[i] = cloneJob(page[i])
	}
	return out, len(matched), nil
}

// Update applies the supplied fields and touches updated_at. RawYAML and
// ParsedYAML are always written together.
func (r *JobRepo) Update(_ context.Context, id string, req model.UpdateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs.get(id)
	if !ok {
		return nil, jobNotFound()
	}
	if req.Name != nil {
		j.Name = *req.Name
	}
	if req.IsActive != nil {
		j.IsActive = *req.IsActive
	}
	if req.RawYAML != nil {
		j.RawYAML = cloneStr(req.RawYAML)
		j.ParsedYAML = req.ParsedYAML.Clone()
	}
	j.UpdatedAt = r.s.timestamp()
	r.s.jobs.put(id, j)
	return cloneJob(j), nil
}

// Delete removes a job that has no runs.
func (r *JobRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs.get(id); !ok {
		return jobNotFound()
	}
	if r.s.runs.exists(func(run model.Run) bool { return eqStr(run.JobID, id) }) {
		return apperrors.HasDependents("cannot delete because it still has runs")
	}
	r.s.jobs.remove(id)
	return nil
}

// MarkRun sets last_run_at.
func (r *JobRepo) MarkRun(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs.get(id)
	if !ok {
		return jobNotFound()
	}
	ts := at.UTC()
	j.LastRunAt = &ts
	r.s.jobs.put(id, j)
	return nil
}
