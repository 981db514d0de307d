package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data/database"
	"github.com/target/harvester-api/internal/domain/model"
)

var _ core.ProjectRepository = (*ProjectRepo)(nil)

// ProjectRepo provides database operations for projects.
type ProjectRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProjectRepo creates a new ProjectRepo. A nil TimeProvider uses the system clock.
func NewProjectRepo(db *sql.DB, tp TimeProvider) *ProjectRepo {
	return &ProjectRepo{DB: db, timeProvider: orRealTime(tp)}
}

const projectReturning = "id, name, owner_id, created_at"

func projectColumns() []string {
	return []string{"id", "name", "owner_id", "created_at"}
}

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	if req == nil {
		return nil, nilRequest("project")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out, err := queryOne[model.Project](ctx, r.DB, `
		INSERT INTO projects (name, owner_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING `+projectReturning,
		req.Name, req.OwnerID, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, mapRepoErr(err, "project")
	}
	return out, nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	if !validID(id) {
		return nil, notFound("project")
	}
	out, err := queryOne[model.Project](ctx, r.DB,
		`SELECT `+projectReturning+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, mapRepoErr(err, "project")
	}
	return out, nil
}

// List retrieves projects, optionally restricted to one owner.
func (r *ProjectRepo) List(ctx context.Context, opts model.ProjectListOptions) ([]*model.Project, int, error) {
	q := listQuery{
		table:   "projects",
		columns: projectColumns(),
		limit:   opts.Limit,
		offset:  opts.Offset,
	}
	if opts.OwnerID != nil {
		q.conditions = append(q.conditions, database.WhereCond("owner_id", database.Equal, *opts.OwnerID))
	}
	out, total, err := listRows[model.Project](ctx, r.DB, q)
	if err != nil {
		return nil, 0, mapRepoErr(err, "project")
	}
	return out, total, nil
}

// Update applies the supplied fields.
func (r *ProjectRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateProjectRequest,
) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, notFound("project")
	}

	var set updateSet
	set.add("name", strings.TrimSpace(*req.Name))
	query := "UPDATE projects SET " + set.clause() + " WHERE id = " + set.where(id) +
		" RETURNING " + projectReturning

	out, err := queryOne[model.Project](ctx, r.DB, query, set.args...)
	if err != nil {
		return nil, mapRepoErr(err, "project")
	}
	return out, nil
}

// Delete removes a project. Projects that still own jobs are protected by the
// jobs_project_id_fkey constraint and surface as HasDependents.
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("project")
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return mapRepoErr(err, "project")
	}
	if n == 0 {
		return notFound("project")
	}
	return nil
}
