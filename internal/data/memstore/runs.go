package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

type runRecord = model.Run

var _ core.RunRepository = (*RunRepo)(nil)

// RunRepo is the run view of a Store.
type RunRepo struct{ s *Store }

// Runs returns the run repository.
func (s *Store) Runs() *RunRepo { return &RunRepo{s: s} }

func cloneRun(r model.Run) *model.Run {
	r.JobID = cloneStr(r.JobID)
	r.PrefectState = cloneStr(r.PrefectState)
	r.PrefectFlowRunID = cloneStr(r.PrefectFlowRunID)
	r.Logs = cloneStr(r.Logs)
	r.StartedAt = cloneTime(r.StartedAt)
	r.FinishedAt = cloneTime(r.FinishedAt)
	return &r
}

func runNotFound() error { return apperrors.NotFound("run not found") }

// Create inserts a new run in the queued state.
func (r *RunRepo) Create(_ context.Context, req *model.CreateRunRequest) (*model.Run, error) {
	if req == nil {
		return nil, apperrors.Validation("create run request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs.get(req.JobID); !ok {
		return nil, apperrors.ReferenceNotFound("job_id", "referenced job does not exist")
	}
	jobID := req.JobID
	run := model.Run{
		ID:        r.s.newID(),
		JobID:     &jobID,
		Status:    model.RunStatusQueued,
		CreatedAt: r.s.timestamp(),
	}
	r.s.runs.insert(run.ID, run)
	return cloneRun(run), nil
}

// GetByID retrieves a run by ID.
func (r *RunRepo) GetByID(_ context.Context, id string) (*model.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	run, ok := r.s.runs.get(id)
	if !ok {
		return nil, runNotFound()
	}
	return cloneRun(run), nil
}

// List retrieves runs matching the options.
func (r *RunRepo) List(_ context.Context, opts model.RunListOptions) ([]*model.Run, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.runs.filter(func(run model.Run) bool {
		if opts.JobID != nil && !eqStr(run.JobID, *opts.JobID) {
			return false
		}
		return opts.Status == nil || run.Status == *opts.Status
	})
	page := paginate(matched, opts.Limit, opts.Offset)
	out := make([]*model.Run, len(page))
	for i := range page {
		out[i] = cloneRun(page[i])
	}
	return out, len(matched), nil
}

// Update applies the supplied fields. Status is written as given.
func (r *RunRepo) Update(_ context.Context, id string, req model.UpdateRunRequest) (*model.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	run, ok := r.s.runs.get(id)
	if !ok {
		return nil, runNotFound()
	}
	if req.Status != nil {
		run.Status = *req.Status
	}
	if req.PrefectState != nil {
		run.PrefectState = cloneStr(req.PrefectState)
	}
	if req.PrefectFlowRunID != nil {
		run.PrefectFlowRunID = cloneStr(req.PrefectFlowRunID)
	}
	if req.Logs != nil {
		run.Logs = cloneStr(req.Logs)
	}
	if req.StartedAt != nil {
		ts := req.StartedAt.UTC()
		run.StartedAt = &ts
	}
	if req.FinishedAt != nil {
		ts := req.FinishedAt.UTC()
		run.FinishedAt = &ts
	}
	r.s.runs.put(id, run)
	return cloneRun(run), nil
}

// Delete removes a run that has no results.
func (r *RunRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.runs.get(id); !ok {
		return runNotFound()
	}
	if r.s.results.exists(func(res model.Result) bool { return eqStr(res.RunID, id) }) {
		return apperrors.HasDependents("cannot delete because it still has results")
	}
	r.s.runs.remove(id)
	return nil
}

// TransitionStatus performs a compare-and-set on the run status.
func (r *RunRepo) TransitionStatus(_ context.Context, params core.TransitionParams) (*model.Run, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	run, ok := r.s.runs.get(params.ID)
	if !ok {
		return nil, runNotFound()
	}
	if !slices.Contains(params.From, run.Status) {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("run cannot move from %q to %q", run.Status, params.To),
		)
	}
	run.Status = params.To
	r.s.runs.put(params.ID, run)
	return cloneRun(run), nil
}
