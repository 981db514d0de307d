package memstore

import (
	"context"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

type resultRecord = model.Result

var _ core.ResultRepository = (*ResultRepo)(nil)

// ResultRepo is the result view of a Store.
type ResultRepo struct{ s *Store }

// Results returns the result repository.
func (s *Store) Results() *ResultRepo { return &ResultRepo{s: s} }

func cloneResult(r model.Result) *model.Result {
	r.RunID = cloneStr(r.RunID)
	r.Payload = r.Payload.Clone()
	r.Artifacts = r.Artifacts.Clone()
	return &r
}

func resultNotFound() error { return apperrors.NotFound("result not found") }

// Create inserts a new result.
func (r *ResultRepo) Create(_ context.Context, req *model.CreateResultRequest) (*model.Result, error) {
	if req == nil {
		return nil, apperrors.Validation("create result request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.runs.get(req.RunID); !ok {
		return nil, apperrors.ReferenceNotFound("run_id", "referenced run does not exist")
	}
	runID := req.RunID
	res := model.Result{
		ID:        r.s.newID(),
		RunID:     &runID,
		Payload:   req.Payload.Clone(),
		Artifacts: req.Artifacts.Clone(),
		CreatedAt: r.s.timestamp(),
	}
	r.s.results.insert(res.ID, res)
	return cloneResult(res), nil
}

// GetByID retrieves a result by ID.
func (r *ResultRepo) GetByID(_ context.Context, id string) (*model.Result, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.results.get(id)
	if !ok {
		return nil, resultNotFound()
	}
	return cloneResult(res), nil
}

// List retrieves results matching the options.
func (r *ResultRepo) List(_ context.Context, opts model.ResultListOptions) ([]*model.Result, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.results.filter(func(res model.Result) bool {
		return opts.RunID == nil || eqStr(res.RunID, *opts.RunID)
	})
	page := paginate(matched, opts.Limit, opts.Offset)
	out := make([]*model.Result, len(page))
	for i := range page {
		out[i] = cloneResult(page[i])
	}
	return out, len(matched), nil
}

// Update replaces the supplied documents.
func (r *ResultRepo) Update(_ context.Context, id string, req model.UpdateResultRequest) (*model.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.results.get(id)
	if !ok {
		return nil, resultNotFound()
	}
	if req.Payload != nil {
		res.Payload = req.Payload.Clone()
	}
	if req.Artifacts != nil {
		res.Artifacts = req.Artifacts.Clone()
	}
	r.s.results.put(id, res)
	return cloneResult(res), nil
}

// Delete removes a result.
func (r *ResultRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.results.get(id); !ok {
		return resultNotFound()
	}
	r.s.results.remove(id)
	return nil
}
