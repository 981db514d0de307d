package memstore

import (
	"context"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

type projectRecord = model.Project

var _ core.ProjectRepository = (*ProjectRepo)(nil)

// ProjectRepo is the project view of a Store.
type ProjectRepo struct{ s *Store }

// Projects returns the project repository.
func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s: s} }

func cloneProject(p model.Project) *model.Project {
	p.OwnerID = cloneStr(p.OwnerID)
	return &p
}

func projectNotFound() error { return apperrors.NotFound("project not found") }

// Create inserts a new project.
func (r *ProjectRepo) Create(_ context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	if req == nil {
		return nil, apperrors.Validation("create project request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := model.Project{
		ID:        r.s.newID(),
		Name:      req.Name,
		OwnerID:   cloneStr(req.OwnerID),
		CreatedAt: r.s.timestamp(),
	}
	r.s.projects.insert(p.ID, p)
	return cloneProject(p), nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects.get(id)
	if !ok {
		return nil, projectNotFound()
	}
	return cloneProject(p), nil
}

// List retrieves projects matching the options.
func (r *ProjectRepo) List(_ context.Context, opts model.ProjectListOptions) ([]*model.Project, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.projects.filter(func(p model.Project) bool {
		return opts.OwnerID == nil || eqStr(p.OwnerID, *opts.OwnerID)
	})
	page := paginate(matched, opts.Limit, opts.Offset)
	out := make([]*model.Project, len(page))
	for i := range page {
		out[i] = cloneProject(page[i])
	}
	return out, len(matched), nil
}

// Update applies the supplied fields.
func (r *ProjectRepo) Update(_ context.Context, id string, req model.UpdateProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects.get(id)
	if !ok {
		return nil, projectNotFound()
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	r.s.projects.put(id, p)
	return cloneProject(p), nil
}

// Delete removes a project that has no jobs.
func (r *ProjectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects.get(id); !ok {
		return projectNotFound()
	}
	if r.s.jobs.exists(func(j model.Job) bool { return eqStr(j.ProjectID, id) }) {
		return apperrors.HasDependents("cannot delete because it still has jobs")
	}
	r.s.projects.remove(id)
	return nil
}
