package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data/database"
	"github.com/target/harvester-api/internal/domain/model"
)

var _ core.JobRepository = (*JobRepo)(nil)

// JobRepo provides database operations for jobs.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo. A nil TimeProvider uses the system clock.
func NewJobRepo(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: orRealTime(tp)}
}

const jobReturning = "id, project_id, name, raw_yaml, parsed_yaml, created_at, updated_at, last_run_at, is_active"

func jobColumns() []string {
	return []string{
		"id",
		"project_id",
		"name",
		"raw_yaml",
		"parsed_yaml",
		"created_at",
		"updated_at",
		"last_run_at",
		"is_active",
	}
}

// jsonbArg passes a nil Document as SQL NULL rather than the JSON literal null.
func jsonbArg(d model.Document) any {
	if d == nil {
		return nil
	}
	return d
}

// Create inserts a new job. is_active defaults to true.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, nilRequest("job")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ProjectID != nil && !validID(*req.ProjectID) {
		return nil, missingParent("project_id", "project")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	now := r.timeProvider.Now()
	out, err := queryOne[model.Job](ctx, r.DB, `
		INSERT INTO jobs (project_id, name, raw_yaml, parsed_yaml, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		RETURNING `+jobReturning,
		req.ProjectID, req.Name, req.RawYAML, jsonbArg(req.ParsedYAML), now, active,
	)
	if err != nil {
		return nil, mapRepoErr(err, "job")
	}
	return out, nil
}

// GetByID retrieves a job by ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if !validID(id) {
		return nil, notFound("job")
	}
	out, err := queryOne[model.Job](ctx, r.DB, `SELECT `+jobReturning+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, mapRepoErr(err, "job")
	}
	return out, nil
}

// List retrieves jobs, optionally restricted to one project.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, int, error) {
	q := listQuery{
		table:   "jobs",
		columns: jobColumns(),
		limit:   opts.Limit,
		offset:  opts.Offset,
	}
	if opts.ProjectID != nil {
		if !validID(*opts.ProjectID) {
			return []*model.Job{}, 0, nil
		}
		q.conditions = append(q.conditions, database.WhereCond("project_id", database.Equal, *opts.ProjectID))
	}
	out, total, err := listRows[model.Job](ctx, r.DB, q)
	if err != nil {
		return nil, 0, mapRepoErr(err, "job")
	}
	return out, total, nil
}

// Update applies the supplied fields and always touches updated_at. raw_yaml and
// parsed_yaml are written in the same statement.
func (r *JobRepo) Update(ctx context.Context, id string, req model.UpdateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, notFound("job")
	}

	var set updateSet
	if req.Name != nil {
		set.add("name", *req.Name)
	}
	if req.RawYAML != nil {
		set.add("raw_yaml", *req.RawYAML)
		set.add("parsed_yaml", jsonbArg(req.ParsedYAML))
	}
	if req.IsActive != nil {
		set.add("is_active", *req.IsActive)
	}
	set.add("updated_at", r.timeProvider.Now())

	query := "UPDATE jobs SET " + set.clause() + " WHERE id = " + set.where(id) + " RETURNING " + jobReturning
	out, err := queryOne[model.Job](ctx, r.DB, query, set.args...)
	if err != nil {
		return nil, mapRepoErr(err, "job")
	}
	return out, nil
}

// Delete removes a job. Jobs that still have runs are protected by runs_job_id_fkey.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("job")
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapRepoErr(err, "job")
	}
	if n == 0 {
		return notFound("job")
	}
	return nil
}

// MarkRun sets last_run_at.
func (r *JobRepo) MarkRun(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return notFound("job")
	}
	n, err := execAffected(ctx, r.DB, `UPDATE jobs SET last_run_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return mapRepoErr(err, "job")
	}
	if n == 0 {
		return notFound("job")
	}
	return nil
}
