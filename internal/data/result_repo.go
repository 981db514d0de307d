package data

import (
	"context"
	"database/sql"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data/database"
	"github.com/target/harvester-api/internal/domain/model"
)

var _ core.ResultRepository = (*ResultRepo)(nil)

// ResultRepo provides database operations for results.
type ResultRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewResultRepo creates a new ResultRepo. A nil TimeProvider uses the system clock.
func NewResultRepo(db *sql.DB, tp TimeProvider) *ResultRepo {
	return &ResultRepo{DB: db, timeProvider: orRealTime(tp)}
}

const resultReturning = "id, run_id, payload, artifacts, created_at"

func resultColumns() []string {
	return []string{"id", "run_id", "payload", "artifacts", "created_at"}
}

// Create inserts a new result.
func (r *ResultRepo) Create(ctx context.Context, req *model.CreateResultRequest) (*model.Result, error) {
	if req == nil {
		return nil, nilRequest("result")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(req.RunID) {
		return nil, missingParent("run_id", "run")
	}

	out, err := queryOne[model.Result](ctx, r.DB, `
		INSERT INTO results (run_id, payload, artifacts, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+resultReturning,
		req.RunID, jsonbArg(req.Payload), jsonbArg(req.Artifacts), r.timeProvider.Now(),
	)
	if err != nil {
		return nil, mapRepoErr(err, "result")
	}
	return out, nil
}

// GetByID retrieves a result by ID.
func (r *ResultRepo) GetByID(ctx context.Context, id string) (*model.Result, error) {
	if !validID(id) {
		return nil, notFound("result")
	}
	out, err := queryOne[model.Result](ctx, r.DB, `SELECT `+resultReturning+` FROM results WHERE id = $1`, id)
	if err != nil {
		return nil, mapRepoErr(err, "result")
	}
	return out, nil
}

// List retrieves results, optionally restricted to one run.
func (r *ResultRepo) List(ctx context.Context, opts model.ResultListOptions) ([]*model.Result, int, error) {
	q := listQuery{
		table:   "results",
		columns: resultColumns(),
		limit:   opts.Limit,
		offset:  opts.Offset,
	}
	if opts.RunID != nil {
		if !validID(*opts.RunID) {
			return []*model.Result{}, 0, nil
		}
		q.conditions = append(q.conditions, database.WhereCond("run_id", database.Equal, *opts.RunID))
	}
	out, total, err := listRows[model.Result](ctx, r.DB, q)
	if err != nil {
		return nil, 0, mapRepoErr(err, "result")
	}
	return out, total, nil
}

// Update replaces the supplied documents.
func (r *ResultRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateResultRequest,
) (*model.Result, error) {
	if !validID(id) {
		return nil, notFound("result")
	}

	var set updateSet
	if req.Payload != nil {
		set.add("payload", req.Payload)
	}
	if req.Artifacts != nil {
		set.add("artifacts", req.Artifacts)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	query := "UPDATE results SET " + set.clause() + " WHERE id = " + set.where(id) + " RETURNING " + resultReturning
	out, err := queryOne[model.Result](ctx, r.DB, query, set.args...)
	if err != nil {
		return nil, mapRepoErr(err, "result")
	}
	return out, nil
}

// Delete removes a result. Results have no children.
func (r *ResultRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("result")
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return mapRepoErr(err, "result")
	}
	if n == 0 {
		return notFound("result")
	}
	return nil
}
