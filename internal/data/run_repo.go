package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data/database"
	"github.com/target/harvester-api/internal/data/pgxutil"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

var _ core.RunRepository = (*RunRepo)(nil)

// RunRepo provides database operations for runs.
type RunRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRunRepo creates a new RunRepo. A nil TimeProvider uses the system clock.
func NewRunRepo(db *sql.DB, tp TimeProvider) *RunRepo {
	return &RunRepo{DB: db, timeProvider: orRealTime(tp)}
}

const runReturning = "id, job_id, status, prefect_state, prefect_flow_run_id, logs, started_at, finished_at, created_at"

func runColumns() []string {
	return []string{
		"id",
		"job_id",
		"status",
		"prefect_state",
		"prefect_flow_run_id",
		"logs",
		"started_at",
		"finished_at",
		"created_at",
	}
}

// Create inserts a new run in the queued state.
func (r *RunRepo) Create(ctx context.Context, req *model.CreateRunRequest) (*model.Run, error) {
	if req == nil {
		return nil, nilRequest("run")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(req.JobID) {
		return nil, missingParent("job_id", "job")
	}

	out, err := queryOne[model.Run](ctx, r.DB, `
		INSERT INTO runs (job_id, status, created_at)
		VALUES ($1, $2, $3)
		RETURNING `+runReturning,
		req.JobID, string(model.RunStatusQueued), r.timeProvider.Now(),
	)
	if err != nil {
		return nil, mapRepoErr(err, "run")
	}
	return out, nil
}

// GetByID retrieves a run by ID.
func (r *RunRepo) GetByID(ctx context.Context, id string) (*model.Run, error) {
	if !validID(id) {
		return nil, notFound("run")
	}
	out, err := queryOne[model.Run](ctx, r.DB, `SELECT `+runReturning+` FROM runs WHERE id = $1`, id)
	if err != nil {
		return nil, mapRepoErr(err, "run")
	}
	return out, nil
}

// List retrieves runs filtered by job and/or status.
func (r *RunRepo) List(ctx context.Context, opts model.RunListOptions) ([]*model.Run, int, error) {
	q := listQuery{
		table:   "runs",
		columns: runColumns(),
		limit:   opts.Limit,
		offset:  opts.Offset,
	}
	if opts.JobID != nil {
		if !validID(*opts.JobID) {
			return []*model.Run{}, 0, nil
		}
		q.conditions = append(q.conditions, database.WhereCond("job_id", database.Equal, *opts.JobID))
	}
	if opts.Status != nil {
		q.conditions = append(q.conditions, database.WhereCond("status", database.Equal, string(*opts.Status)))
	}
	out, total, err := listRows[model.Run](ctx, r.DB, q)
	if err != nil {
		return nil, 0, mapRepoErr(err, "run")
	}
	return out, total, nil
}

// Update applies the supplied fields. Status is written as given.
func (r *RunRepo) Update(ctx context.Context, id string, req model.UpdateRunRequest) (*model.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, notFound("run")
	}

	set := buildRunUpdate(req)
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	query := "UPDATE runs SET " + set.clause() + " WHERE id = " + set.where(id) + " RETURNING " + runReturning
	out, err := queryOne[model.Run](ctx, r.DB, query, set.args...)
	if err != nil {
		return nil, mapRepoErr(err, "run")
	}
	return out, nil
}

func buildRunUpdate(req model.UpdateRunRequest) *updateSet {
	set := &updateSet{}
	if req.Status != nil {
		set.add("status", string(*req.Status))
	}
	if req.PrefectState != nil {
		set.add("prefect_state", *req.PrefectState)
	}
	if req.PrefectFlowRunID != nil {
		set.add("prefect_flow_run_id", *req.PrefectFlowRunID)
	}
	if req.Logs != nil {
		set.add("logs", *req.Logs)
	}
	if req.StartedAt != nil {
		set.add("started_at", req.StartedAt.UTC())
	}
	if req.FinishedAt != nil {
		set.add("finished_at", req.FinishedAt.UTC())
	}
	return set
}

// Delete removes a run. Runs that still have results are protected by results_run_id_fkey.
func (r *RunRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("run")
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return mapRepoErr(err, "run")
	}
	if n == 0 {
		return notFound("run")
	}
	return nil
}

// TransitionStatus moves the run to params.To only while its stored status is one
// of params.From. The guard is part of the UPDATE so concurrent callers cannot both win.
func (r *RunRepo) TransitionStatus(ctx context.Context, params core.TransitionParams) (*model.Run, error) {
	if !validID(params.ID) {
		return nil, notFound("run")
	}
	from := make([]string, len(params.From))
	for i, s := range params.From {
		from[i] = string(s)
	}

	var (
		out     model.Run
		current string
		moved   bool
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE runs SET status = $1
			WHERE id = $2 AND status = ANY($3::text[])
			RETURNING `+runReturning,
			string(params.To), params.ID, from,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Run])
		if err == nil {
			moved = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		// Nothing matched: either the run is gone or its status is outside From.
		return conn.QueryRow(ctx, `SELECT status FROM runs WHERE id = $1`, params.ID).Scan(&current)
	})
	if err != nil {
		return nil, mapRepoErr(err, "run")
	}
	if !moved {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("run cannot move from %q to %q", current, params.To),
		)
	}
	return &out, nil
}
